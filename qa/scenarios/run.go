package scenarios

import (
	"context"
	"testing"
	"time"

	"github.com/maelviard/trackcast/core/aircraft"
	"github.com/maelviard/trackcast/core/geo"
	"github.com/maelviard/trackcast/core/hazard"
	"github.com/maelviard/trackcast/core/model"
	"github.com/maelviard/trackcast/core/predict"
	"github.com/maelviard/trackcast/core/satellite"
	"github.com/maelviard/trackcast/core/service"
	"github.com/maelviard/trackcast/core/state"
	"github.com/maelviard/trackcast/core/vessel"
	"github.com/maelviard/trackcast/core/wildlife"
	"github.com/maelviard/trackcast/infra/logger"
	memstore "github.com/maelviard/trackcast/infra/store"
)

func newTestService(src *state.MemorySource, now time.Time) *service.Service {
	log := logger.NopLogger{}
	cache := memstore.NewMemory(memstore.Config{}, log)
	clock := predict.WithClock(func() time.Time { return now })
	predictors := []*predict.Predictor{
		predict.New(aircraft.New(aircraft.Config{}), src, cache, log, clock),
		predict.New(vessel.New(vessel.Config{}, vessel.PortTable{}), src, cache, log, clock),
		predict.New(satellite.New(satellite.Config{}), src, cache, log, clock),
		predict.New(wildlife.New(wildlife.Config{}), src, cache, log, clock),
		predict.New(hazard.New(hazard.Config{}, nil, log), src, cache, log, clock),
	}
	return service.New(service.Config{}, predictors, cache, log)
}

func RunScenario(t *testing.T, sc *Scenario) {
	now := time.Date(2026, 7, 10, 12, 0, 0, 0, time.UTC)
	st := sc.State.ToModel(now)

	src := state.NewMemorySource()
	src.Set(st)
	svc := newTestService(src, now)

	req := model.PredictionRequest{
		EntityID:          st.EntityID,
		Type:              st.Type,
		From:              now,
		To:                now.Add(time.Duration(sc.Request.HorizonMinutes) * time.Minute),
		ResolutionSeconds: sc.Request.ResolutionSeconds,
	}
	result, err := svc.PredictOne(context.Background(), req)
	if err != nil {
		t.Fatalf("scenario %s: predict: %v", sc.Name, err)
	}

	if sc.Expected.Points > 0 && len(result.Points) != sc.Expected.Points {
		t.Errorf("scenario %s: expected %d points, got %d", sc.Name, sc.Expected.Points, len(result.Points))
	}
	if len(result.Points) == 0 {
		t.Fatalf("scenario %s: empty forecast", sc.Name)
	}
	last := result.Points[len(result.Points)-1]
	if sc.Expected.MinFinalConfidence > 0 && last.Confidence < sc.Expected.MinFinalConfidence {
		t.Errorf("scenario %s: final confidence %.3f below %.3f", sc.Name, last.Confidence, sc.Expected.MinFinalConfidence)
	}
	if sc.Expected.MaxFinalConfidence > 0 && last.Confidence > sc.Expected.MaxFinalConfidence {
		t.Errorf("scenario %s: final confidence %.3f above %.3f", sc.Name, last.Confidence, sc.Expected.MaxFinalConfidence)
	}
	if sc.Expected.MaxDriftKM > 0 {
		drift := geo.DistanceM(st.Position, last.Position) / 1000
		if drift > sc.Expected.MaxDriftKM {
			t.Errorf("scenario %s: drift %.1f km exceeds %.1f km", sc.Name, drift, sc.Expected.MaxDriftKM)
		}
	}

	for i := 1; i < len(result.Points); i++ {
		if result.Points[i].Confidence > result.Points[i-1].Confidence {
			t.Errorf("scenario %s: confidence rises at point %d", sc.Name, i)
		}
	}
}
