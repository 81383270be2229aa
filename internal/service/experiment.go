package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/emrgen/notebook/internal/csvimport"
	"github.com/emrgen/notebook/internal/model"
	"github.com/emrgen/notebook/internal/rowset"
	"github.com/emrgen/notebook/internal/store"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Experiment is the workbench state of a project: the readings plotted
// next to the document and whether the chart may edit them.
type Experiment struct {
	Bidirectional bool                `json:"bidirectional"`
	Readings      []csvimport.Reading `json:"readings"`
}

func experimentOf(p *model.Project) (*Experiment, error) {
	out := &Experiment{
		Bidirectional: !p.BidirectionalDisabled,
		Readings:      []csvimport.Reading{},
	}
	if len(p.Readings) > 0 {
		if err := json.Unmarshal(p.Readings, &out.Readings); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrChartDataCorrupted, err)
		}
	}
	return out, nil
}

// GetExperiment returns the workbench state of a project.
func (s *ProjectService) GetExperiment(ctx context.Context, id string) (*Experiment, error) {
	pid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	p, err := s.store.GetProject(ctx, pid)
	if err != nil {
		return nil, err
	}
	return experimentOf(p)
}

// ImportReadings replaces the readings of a project with rows mapped onto
// the experiment shape.
func (s *ProjectService) ImportReadings(ctx context.Context, id string, rs rowset.RowSet) (*Experiment, error) {
	readings := csvimport.ToExperiment(rs)
	logrus.Debugf("importing %d readings into project %s", len(readings), id)
	return s.updateReadings(ctx, id, func(exp *Experiment) error {
		exp.Readings = readings
		return nil
	})
}

// EditReading sets one field of the reading at index.
func (s *ProjectService) EditReading(ctx context.Context, id string, index int, field, value string) (*Experiment, error) {
	return s.updateReadings(ctx, id, func(exp *Experiment) error {
		return csvimport.Edit(exp.Readings, index, field, value)
	})
}

// ClickReading applies a click on the chart point of the reading at index.
// It fails while bidirectional editing is off.
func (s *ProjectService) ClickReading(ctx context.Context, id string, index int) (*Experiment, error) {
	return s.updateReadings(ctx, id, func(exp *Experiment) error {
		if !exp.Bidirectional {
			return ErrBidirectionalDisabled
		}
		return csvimport.BumpTemp(exp.Readings, index)
	})
}

// SetBidirectional turns editing readings from the chart on or off.
func (s *ProjectService) SetBidirectional(ctx context.Context, id string, enabled bool) (*Experiment, error) {
	pid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	if err := s.store.UpdateBidirectional(ctx, pid, enabled); err != nil {
		return nil, err
	}
	return s.GetExperiment(ctx, id)
}

func (s *ProjectService) updateReadings(ctx context.Context, id string, fn func(exp *Experiment) error) (*Experiment, error) {
	pid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	var out *Experiment
	err = s.store.Transaction(ctx, func(tx store.Store) error {
		exp, err := loadExperiment(ctx, tx, pid)
		if err != nil {
			return err
		}
		if err := fn(exp); err != nil {
			return err
		}

		data, err := json.Marshal(exp.Readings)
		if err != nil {
			return err
		}
		if err := tx.UpdateReadings(ctx, pid, data); err != nil {
			return err
		}
		out = exp
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func loadExperiment(ctx context.Context, tx store.Store, pid uuid.UUID) (*Experiment, error) {
	p, err := tx.GetProject(ctx, pid)
	if err != nil {
		return nil, err
	}
	return experimentOf(p)
}
