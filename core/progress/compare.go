package progress

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/maendeleo/core"
)

// Merged series key columns
const (
	KeySubject = "subject"
	KeyDate    = "date"
	KeyRank    = "rank"
)

// Fill is what a merged row holds for a key an entity has no value for.
type Fill int

const (
	// FillZero reads "no data" as zero strength (bar charts).
	FillZero Fill = iota
	// FillNull leaves a gap in the series (line/area charts).
	FillNull
)

// Point is one {key, value} pair of a series.
type Point struct {
	Key   string  `json:"key"`
	Value float64 `json:"value"`
}

// Entity is a labelled series taking part in a comparison.
type Entity struct {
	Label  string  `json:"label"`
	Points []Point `json:"points"`
}

type MergedRow struct {
	Key    string
	Values []null.Float64
}

// MergedSeries is the union of the keys of one or two series, aligned for overlay charting.
// Series holds the column labels, in the same order as every row's Values.
type MergedSeries struct {
	Key    string
	Series []string
	Rows   []MergedRow
}

// SubjectPoints converts subject averages into a series.
func SubjectPoints(avgs []SubjectAverage) []Point {
	points := make([]Point, 0, len(avgs))
	for _, a := range avgs {
		points = append(points, Point{Key: a.Subject, Value: a.Percentage})
	}
	return points
}

// TimelinePoints converts timeline points into a series.
func TimelinePoints(timeline []TimelinePoint) []Point {
	points := make([]Point, 0, len(timeline))
	for _, t := range timeline {
		points = append(points, Point{Key: t.Date, Value: t.Percentage})
	}
	return points
}

// CohortPoints keys a ranked cohort by rank position ("#1", "#2", ...).
// Students without marks count as zero.
func CohortPoints(summaries []StudentSummary) []Point {
	points := make([]Point, 0, len(summaries))
	for _, s := range summaries {
		var v float64
		if s.Average.Valid {
			v = s.Average.Float64
		}
		points = append(points, Point{Key: fmt.Sprintf("#%d", s.Rank), Value: v})
	}
	return points
}

// MergeSubjects merges subject series: keys in first-seen order (a's, then b's new ones), missing values are 0.
// A nil b yields a single-column pass-through.
func MergeSubjects(a Entity, b *Entity) MergedSeries {
	return Merge(KeySubject, FillZero, nil, a, b)
}

// MergeTimelines merges date series: keys in chronological order (UnknownDate last), missing values are null.
func MergeTimelines(a Entity, b *Entity) MergedSeries {
	return Merge(KeyDate, FillNull, dateLess, a, b)
}

// MergeCohorts merges rank-keyed cohort series; missing values are 0.
func MergeCohorts(a Entity, b *Entity) MergedSeries {
	return Merge(KeyRank, FillZero, nil, a, b)
}

// Merge unions the keys of a and b (when not nil). less, when given, sorts the union;
// otherwise keys keep first-seen order. Column labels are made distinct from each other and from key.
func Merge(key string, fill Fill, less func(a, b string) bool, a Entity, b *Entity) MergedSeries {
	entities := []Entity{a}
	if b != nil {
		entities = append(entities, *b)
	}

	keys := make([]string, 0)
	values := make([]map[string]float64, len(entities))
	seen := make(map[string]struct{})
	for i, e := range entities {
		values[i] = make(map[string]float64, len(e.Points))
		for _, p := range e.Points {
			if _, ok := values[i][p.Key]; ok {
				continue // first value wins
			}
			values[i][p.Key] = p.Value
			if _, ok := seen[p.Key]; !ok {
				seen[p.Key] = struct{}{}
				keys = append(keys, p.Key)
			}
		}
	}
	if less != nil {
		sort.SliceStable(keys, func(i, j int) bool { return less(keys[i], keys[j]) })
	}

	rows := make([]MergedRow, 0, len(keys))
	for _, k := range keys {
		row := MergedRow{Key: k, Values: make([]null.Float64, len(entities))}
		for i := range entities {
			if v, ok := values[i][k]; ok {
				row.Values[i] = null.Float64From(v)
			} else if fill == FillZero {
				row.Values[i] = null.Float64From(0)
			}
		}
		rows = append(rows, row)
	}

	return MergedSeries{
		Key:    key,
		Series: columnLabels(key, entities),
		Rows:   rows,
	}
}

func columnLabels(key string, entities []Entity) []string {
	taken := map[string]struct{}{key: {}}
	labels := make([]string, 0, len(entities))
	for i, e := range entities {
		label := core.CleanString(e.Label)
		if label == "" {
			label = string(rune('A' + i))
		}
		base := label
		for n := 2; ; n++ {
			if _, ok := taken[label]; !ok {
				break
			}
			label = fmt.Sprintf("%s (%d)", base, n)
		}
		taken[label] = struct{}{}
		labels = append(labels, label)
	}
	return labels
}

// Column returns the values of the named series column, in row order.
func (ms MergedSeries) Column(label string) ([]null.Float64, bool) {
	for i, s := range ms.Series {
		if s != label {
			continue
		}
		col := make([]null.Float64, 0, len(ms.Rows))
		for _, r := range ms.Rows {
			col = append(col, r.Values[i])
		}
		return col, true
	}
	return nil, false
}

// Keys returns the row keys, in order.
func (ms MergedSeries) Keys() []string {
	keys := make([]string, 0, len(ms.Rows))
	for _, r := range ms.Rows {
		keys = append(keys, r.Key)
	}
	return keys
}

// MarshalJSON renders chart-ready rows: {"key":"subject","series":["Ann","Ben"],"rows":[{"subject":"Math","Ann":85,"Ben":0}]}.
func (ms MergedSeries) MarshalJSON() ([]byte, error) {
	rows := make([]map[string]interface{}, 0, len(ms.Rows))
	for _, r := range ms.Rows {
		row := make(map[string]interface{}, len(r.Values)+1)
		row[ms.Key] = r.Key
		for i, v := range r.Values {
			if i >= len(ms.Series) {
				break
			}
			if v.Valid {
				row[ms.Series[i]] = v.Float64
			} else {
				row[ms.Series[i]] = nil
			}
		}
		rows = append(rows, row)
	}
	series := ms.Series
	if series == nil {
		series = []string{}
	}
	return json.Marshal(struct {
		Key    string                   `json:"key"`
		Series []string                 `json:"series"`
		Rows   []map[string]interface{} `json:"rows"`
	}{ms.Key, series, rows})
}

// UnmarshalJSON reads back the MarshalJSON rendering.
func (ms *MergedSeries) UnmarshalJSON(data []byte) error {
	var raw struct {
		Key    string                   `json:"key"`
		Series []string                 `json:"series"`
		Rows   []map[string]interface{} `json:"rows"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	ms.Key = raw.Key
	ms.Series = raw.Series
	ms.Rows = make([]MergedRow, 0, len(raw.Rows))
	for _, r := range raw.Rows {
		row := MergedRow{Values: make([]null.Float64, len(raw.Series))}
		row.Key, _ = r[raw.Key].(string)
		for i, label := range raw.Series {
			if v, ok := r[label].(float64); ok {
				row.Values[i] = null.Float64From(v)
			}
		}
		ms.Rows = append(ms.Rows, row)
	}
	return nil
}
