package eval

import (
	"gonum.org/v1/gonum/stat"

	"relbench/internal/relation"
)

// Undefined is reported for a precision or recall whose denominator is zero.
const Undefined = -1.0

// Mode selects how unit scores are aggregated.
type Mode string

const (
	// ModePooled sums counts over all units before dividing.
	ModePooled Mode = "pooled"
	// ModeAveraged divides per unit and takes the arithmetic mean.
	ModeAveraged Mode = "averaged"
	// ModeBoth reports both aggregations.
	ModeBoth Mode = "both"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, bool) {
	switch Mode(s) {
	case ModePooled, ModeAveraged, ModeBoth:
		return Mode(s), true
	}
	return "", false
}

// Includes reports whether m asks for the aggregation other.
func (m Mode) Includes(other Mode) bool {
	return m == ModeBoth || m == other
}

// Counts are true positive, false positive and false negative tallies.
type Counts struct {
	TP int `json:"tp" yaml:"tp" toml:"tp"`
	FP int `json:"fp" yaml:"fp" toml:"fp"`
	FN int `json:"fn" yaml:"fn" toml:"fn"`
}

// Score compares a candidate set against a reference set.
func Score(candidate, reference relation.Set) Counts {
	tp := candidate.Intersect(reference).Len()
	return Counts{
		TP: tp,
		FP: candidate.Len() - tp,
		FN: reference.Len() - tp,
	}
}

// Add returns the element-wise sum.
func (c Counts) Add(o Counts) Counts {
	return Counts{TP: c.TP + o.TP, FP: c.FP + o.FP, FN: c.FN + o.FN}
}

// Precision is tp/(tp+fp), or Undefined.
func (c Counts) Precision() float64 {
	return ratio(c.TP, c.TP+c.FP)
}

// Recall is tp/(tp+fn), or Undefined.
func (c Counts) Recall() float64 {
	return ratio(c.TP, c.TP+c.FN)
}

func ratio(num, den int) float64 {
	if den == 0 {
		return Undefined
	}
	return float64(num) / float64(den)
}

// Metrics is an aggregated precision and recall.
type Metrics struct {
	Precision float64 `json:"precision" yaml:"precision" toml:"precision"`
	Recall    float64 `json:"recall" yaml:"recall" toml:"recall"`
	Units     int     `json:"units" yaml:"units" toml:"units"`
}

// Pooled sums the counts of every unit and computes one precision and
// recall. A unit with no relations on either side adds nothing to the sums.
func Pooled(units []Counts) (Metrics, Counts) {
	var total Counts
	for _, u := range units {
		total = total.Add(u)
	}
	return Metrics{
		Precision: total.Precision(),
		Recall:    total.Recall(),
		Units:     len(units),
	}, total
}

// Averaged computes precision and recall per unit and returns their means.
// Units with an undefined value contribute Undefined to the mean, which pulls
// it down; callers reading averaged numbers should keep that in mind. Empty
// input averages to zero.
func Averaged(units []Counts) Metrics {
	if len(units) == 0 {
		return Metrics{}
	}
	precisions := make([]float64, len(units))
	recalls := make([]float64, len(units))
	for i, u := range units {
		precisions[i] = u.Precision()
		recalls[i] = u.Recall()
	}
	return Metrics{
		Precision: stat.Mean(precisions, nil),
		Recall:    stat.Mean(recalls, nil),
		Units:     len(units),
	}
}
