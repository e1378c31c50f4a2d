// Package wildlife predicts animal movement: a seasonal migration
// corridor when species and date match one, otherwise continuation of
// the recent trajectory, otherwise a bounded random walk within
// species-typical speed bounds. This is the least certain of the
// predictors, with the lowest confidence ceiling and the fastest
// uncertainty growth.
package wildlife

import (
	"context"
	"hash/fnv"
	"strings"
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/maelviard/trackcast/core/geo"
	"github.com/maelviard/trackcast/core/model"
	"github.com/maelviard/trackcast/core/predict"
)

// speciesSpeedsKmDay are typical sustained travel speeds.
var speciesSpeedsKmDay = map[string]float64{
	"elephant":          20,
	"lion":              10,
	"wildebeest":        30,
	"zebra":             25,
	"arctic_tern":       500,
	"monarch_butterfly": 80,
	"humpback_whale":    50,
	"caribou":           40,
}

// DefaultSpeedKmDay applies to unknown species.
const DefaultSpeedKmDay = 15.0

// Corridor is one seasonal migration window: a polyline the species
// follows during the given months.
type Corridor struct {
	Species    string           `json:"species"`
	StartMonth time.Month       `json:"start_month"`
	EndMonth   time.Month       `json:"end_month"`
	Path       []model.GeoPoint `json:"path"`
}

// active reports whether the corridor covers the given date, handling
// windows that wrap the year end.
func (c Corridor) active(t time.Time) bool {
	m := t.Month()
	if c.StartMonth <= c.EndMonth {
		return m >= c.StartMonth && m <= c.EndMonth
	}
	return m >= c.StartMonth || m <= c.EndMonth
}

// Config tunes the wildlife predictor.
type Config struct {
	Horizon time.Duration `json:"horizon"`
	// Corridors is the seasonal corridor reference table, externally
	// supplied.
	Corridors []Corridor `json:"corridors"`
}

// SetDefaults applies the wildlife defaults.
func (c *Config) SetDefaults() {
	if c.Horizon == 0 {
		c.Horizon = 12 * time.Hour
	}
}

// Predictor implements the wildlife extrapolation primitive.
type Predictor struct {
	cfg Config
}

// New returns a wildlife Predictor.
func New(cfg Config) *Predictor {
	cfg.SetDefaults()
	return &Predictor{cfg: cfg}
}

// Type implements predict.Extrapolator.
func (p *Predictor) Type() model.EntityType { return model.EntityWildlife }

// ProfileFor returns the wildlife profile; behaviour, not physics,
// dominates the error here.
func (p *Predictor) ProfileFor(model.EntityState) predict.Profile {
	return predict.Profile{
		InitialConfidence:    0.70,
		ConfidenceHalfLife:   time.Hour,
		ConfidenceFloor:      0.10,
		BaseUncertaintyM:     5000,
		UncertaintyGrowthMPS: 2.0,
		MaxHorizon:           p.cfg.Horizon,
	}
}

// Extrapolate implements predict.Extrapolator. Noise sources are seeded
// from the state, so a fixed state and window reproduce numerically
// identical tracks.
func (p *Predictor) Extrapolate(_ context.Context, st model.EntityState, times []time.Time) ([]model.PredictedPoint, model.Source, error) {
	rng := rand.New(rand.NewSource(stateSeed(st)))
	if c, ok := p.corridorFor(st, times[0]); ok {
		return p.alongCorridor(st, c, times, rng), model.SourceCorridor, nil
	}
	if hdg, spd, ok := netTrajectory(st); ok {
		return p.continueTrajectory(st, hdg, spd, times, rng), model.SourceVector, nil
	}
	return p.randomWalk(st, times, rng), model.SourceRandomWalk, nil
}

func stateSeed(st model.EntityState) uint64 {
	h := fnv.New64a()
	h.Write([]byte(st.EntityID))
	h.Write([]byte(st.Timestamp.UTC().Format(time.RFC3339Nano)))
	return h.Sum64()
}

func normalizeSpecies(s string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", "_"))
}

func speciesSpeedMS(species string) float64 {
	kmDay, ok := speciesSpeedsKmDay[normalizeSpecies(species)]
	if !ok {
		kmDay = DefaultSpeedKmDay
	}
	return kmDay * 1000 / 86400
}

func (p *Predictor) corridorFor(st model.EntityState, at time.Time) (Corridor, bool) {
	sp := normalizeSpecies(st.Species)
	for _, c := range p.cfg.Corridors {
		if normalizeSpecies(c.Species) == sp && c.active(at) && len(c.Path) >= 2 {
			return c, true
		}
	}
	return Corridor{}, false
}

// alongCorridor advances along the corridor polyline at the species
// speed, with cross-track noise whose spread grows with lead time.
func (p *Predictor) alongCorridor(st model.EntityState, c Corridor, times []time.Time, rng *rand.Rand) []model.PredictedPoint {
	speed := speciesSpeedMS(st.Species)

	// Enter the corridor at the vertex nearest the last observation.
	entry, minDist := 0, geo.DistanceM(st.Position, c.Path[0])
	for i := 1; i < len(c.Path); i++ {
		if d := geo.DistanceM(st.Position, c.Path[i]); d < minDist {
			entry, minDist = i, d
		}
	}

	points := make([]model.PredictedPoint, 0, len(times))
	for _, t := range times {
		elapsed := t.Sub(st.Timestamp).Seconds()
		if elapsed < 0 {
			elapsed = 0
		}
		pos, hdg := alongPath(st.Position, c.Path, entry, speed*elapsed)

		// Lateral scatter grows with lead time: one sigma of 1% of
		// the distance travelled.
		sigma := 0.01 * speed * elapsed
		if sigma > 0 {
			lateral := distuv.Normal{Mu: 0, Sigma: sigma, Src: rng}.Rand()
			pos = geo.Destination(pos, geo.NormalizeHeading(hdg+90), lateral)
		}
		points = append(points, model.PredictedPoint{
			Timestamp:   t,
			Position:    pos,
			Velocity:    &model.Velocity{SpeedMS: speed, HeadingDeg: hdg},
			Uncertainty: model.UncertaintyCone{CrossTrackM: sigma},
		})
	}
	return points
}

// alongPath walks the polyline from the entry vertex by the given
// distance, holding at the final vertex.
func alongPath(from model.GeoPoint, path []model.GeoPoint, entry int, dist float64) (model.GeoPoint, float64) {
	cur := from
	hdg := geo.BearingDeg(from, path[entry])
	for i := entry; i < len(path); i++ {
		legLen := geo.DistanceM(cur, path[i])
		if dist <= legLen {
			if legLen == 0 {
				return cur, hdg
			}
			return geo.Interpolate(cur, path[i], dist/legLen), geo.BearingDeg(cur, path[i])
		}
		dist -= legLen
		if legLen > 0 {
			hdg = geo.BearingDeg(cur, path[i])
		}
		cur = path[i]
	}
	return cur, hdg
}

// netTrajectory derives the net heading and speed of the recent track.
func netTrajectory(st model.EntityState) (headingDeg, speedMS float64, ok bool) {
	if st.Velocity != nil && st.Velocity.SpeedMS > 0 {
		return st.Velocity.HeadingDeg, st.Velocity.SpeedMS, true
	}
	if len(st.History) < 2 {
		return 0, 0, false
	}
	first, last := st.History[0], st.History[len(st.History)-1]
	dt := last.Timestamp.Sub(first.Timestamp).Seconds()
	if dt <= 0 {
		return 0, 0, false
	}
	return geo.BearingDeg(first.Position, last.Position), geo.DistanceM(first.Position, last.Position) / dt, true
}

// continueTrajectory holds the net course with a gentle wander.
func (p *Predictor) continueTrajectory(st model.EntityState, hdg, spd float64, times []time.Time, rng *rand.Rand) []model.PredictedPoint {
	wander := distuv.Normal{Mu: 0, Sigma: 10, Src: rng}
	points := make([]model.PredictedPoint, 0, len(times))
	pos := st.Position
	prev := st.Timestamp
	for _, t := range times {
		step := t.Sub(prev).Seconds()
		if step < 0 {
			step = 0
		}
		hdg = geo.NormalizeHeading(hdg + wander.Rand())
		pos = geo.Destination(pos, hdg, spd*step)
		points = append(points, model.PredictedPoint{
			Timestamp: t,
			Position:  pos,
			Velocity:  &model.Velocity{SpeedMS: spd, HeadingDeg: hdg},
		})
		prev = t
	}
	return points
}

// randomWalk bounds each step by the species-typical speed.
func (p *Predictor) randomWalk(st model.EntityState, times []time.Time, rng *rand.Rand) []model.PredictedPoint {
	// Undirected movement covers far less ground than migration.
	maxStep := speciesSpeedMS(st.Species) * 0.5
	stepDist := distuv.Uniform{Min: 0, Max: maxStep, Src: rng}
	turn := distuv.Normal{Mu: 0, Sigma: 45, Src: rng}

	points := make([]model.PredictedPoint, 0, len(times))
	pos := st.Position
	hdg := rng.Float64() * 360
	prev := st.Timestamp
	for _, t := range times {
		step := t.Sub(prev).Seconds()
		if step < 0 {
			step = 0
		}
		hdg = geo.NormalizeHeading(hdg + turn.Rand())
		spd := stepDist.Rand()
		pos = geo.Destination(pos, hdg, spd*step)
		points = append(points, model.PredictedPoint{
			Timestamp: t,
			Position:  pos,
			Velocity:  &model.Velocity{SpeedMS: spd, HeadingDeg: hdg},
		})
		prev = t
	}
	return points
}
