// Package condition visualizes how medical conditions are spread across the
// patient population.
package condition

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/medlens/analysis/preparation"
	"github.com/YuminosukeSato/medlens/core/strategy"
	"github.com/YuminosukeSato/medlens/dataset"
	"github.com/YuminosukeSato/medlens/pkg/errors"
	"github.com/YuminosukeSato/medlens/render"
)

// Factory dispatches to one condition chart.
type Factory = strategy.Factory[*dataset.Frame, render.Artifact]

// NewFactory returns a factory holding s.
func NewFactory(s strategy.Strategy[*dataset.Frame, render.Artifact]) *Factory {
	return strategy.NewFactory(s)
}

// MedicalConditionColumn holds the diagnosis of each patient.
const MedicalConditionColumn = "Medical Condition"

// WordCloud draws every word of Column at a font size proportional to its
// frequency. Column defaults to Medical Condition.
type WordCloud struct {
	Renderer *render.Renderer
	Column   string
	// MinSize and MaxSize bound the font size in points; they default to 10
	// and 48.
	MinSize, MaxSize float64
}

// Execute lays the words out from most to least frequent.
func (w *WordCloud) Execute(df *dataset.Frame) (render.Artifact, error) {
	column := w.Column
	if column == "" {
		column = MedicalConditionColumn
	}
	s, err := df.Column(column)
	if err != nil {
		return render.Artifact{}, err
	}
	words := WordFrequencies(s)
	if len(words) == 0 {
		return render.Artifact{}, errors.NewValueError("WordCloud", fmt.Sprintf("column %q has no words", column))
	}

	minSize, maxSize := w.MinSize, w.MaxSize
	if minSize <= 0 {
		minSize = 10
	}
	if maxSize <= minSize {
		maxSize = 48
	}
	top := float64(words[0].Count)

	cols := int(math.Ceil(math.Sqrt(float64(len(words)))))
	xys := make(plotter.XYs, len(words))
	labels := make([]string, len(words))
	for i, word := range words {
		xys[i] = plotter.XY{X: float64(i % cols), Y: -float64(i / cols)}
		labels[i] = word.Value
	}
	l, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: labels})
	if err != nil {
		return render.Artifact{}, errors.WithStack(err)
	}
	for i, word := range words {
		size := minSize + (maxSize-minSize)*float64(word.Count)/top
		l.TextStyle[i].Font.Size = vg.Points(size)
		l.TextStyle[i].Color = plotutil.Color(i)
		l.TextStyle[i].XAlign = text.XCenter
		l.TextStyle[i].YAlign = text.YCenter
	}

	p := plot.New()
	p.Add(l)
	p.HideAxes()
	p.X.Min, p.X.Max = -0.5, float64(cols)-0.5
	p.Y.Min, p.Y.Max = -float64((len(words)-1)/cols)-0.5, 0.5
	return w.Renderer.Save(fmt.Sprintf("%s Word Cloud", column), p)
}

// WordFrequencies splits every value of s on white space and counts the
// words, most frequent first.
func WordFrequencies(s *dataset.Series) []dataset.ValueCount {
	index := make(map[string]int)
	var out []dataset.ValueCount
	for i := 0; i < s.Len(); i++ {
		v, ok := s.Key(i)
		if !ok {
			continue
		}
		for _, word := range strings.Fields(v) {
			if j, seen := index[word]; seen {
				out[j].Count++
				continue
			}
			index[word] = len(out)
			out = append(out, dataset.ValueCount{Value: word, Count: 1})
		}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Count > out[b].Count })
	return out
}

// MedicalCondition draws the counts of Gender, Medical Condition and Age
// Group side by side.
type MedicalCondition struct {
	Renderer      *render.Renderer
	MaxCategories int
}

// CountColumns are charted by MedicalCondition, in order.
var CountColumns = []string{preparation.Gender, MedicalConditionColumn, preparation.AgeGroup}

// Execute draws the three count charts in one figure.
func (m *MedicalCondition) Execute(df *dataset.Frame) (render.Artifact, error) {
	if err := df.Require("MedicalCondition", CountColumns...); err != nil {
		return render.Artifact{}, err
	}
	row := make([]*plot.Plot, 0, len(CountColumns))
	for _, name := range CountColumns {
		s, _ := df.Column(name)
		p, err := render.CountChart(fmt.Sprintf("Countplot of %s", name), s, m.MaxCategories)
		if err != nil {
			return render.Artifact{}, err
		}
		row = append(row, p)
	}
	return m.Renderer.SaveGrid("Medical Condition Counts", [][]*plot.Plot{row})
}

// Distribution counts the patients diagnosed with Condition in each age
// group, split by gender.
type Distribution struct {
	Renderer  *render.Renderer
	Condition string
}

// Cancer and the constructors below select one condition each.
func Cancer(r *render.Renderer) *Distribution       { return &Distribution{Renderer: r, Condition: "Cancer"} }
func Arthritis(r *render.Renderer) *Distribution    { return &Distribution{Renderer: r, Condition: "Arthritis"} }
func Diabetes(r *render.Renderer) *Distribution     { return &Distribution{Renderer: r, Condition: "Diabetes"} }
func Hypertension(r *render.Renderer) *Distribution { return &Distribution{Renderer: r, Condition: "Hypertension"} }
func Obesity(r *render.Renderer) *Distribution      { return &Distribution{Renderer: r, Condition: "Obesity"} }
func Asthma(r *render.Renderer) *Distribution       { return &Distribution{Renderer: r, Condition: "Asthma"} }

// Conditions lists the conditions with a dedicated constructor.
var Conditions = []string{"Cancer", "Arthritis", "Diabetes", "Hypertension", "Obesity", "Asthma"}

// ageGroupOrder is the display order of the preparation age buckets.
var ageGroupOrder = []string{
	preparation.ChildrenTeenagers,
	preparation.YoungAdults,
	preparation.MiddleAgedAdults,
	preparation.Seniors,
}

// Execute counts the rows with Condition by age group and gender.
func (d *Distribution) Execute(df *dataset.Frame) (render.Artifact, error) {
	if err := df.Require("Distribution", MedicalConditionColumn, preparation.AgeGroup, preparation.Gender); err != nil {
		return render.Artifact{}, err
	}
	cond, _ := df.Column(MedicalConditionColumn)
	subset := df.Filter(func(i int) bool {
		v, ok := cond.Key(i)
		return ok && v == d.Condition
	})
	if subset.NRows() == 0 {
		return render.Artifact{}, errors.NewValueError("Distribution", fmt.Sprintf("no patients with %s", d.Condition))
	}
	ages, _ := subset.Column(preparation.AgeGroup)
	genders, _ := subset.Column(preparation.Gender)

	categories := orderedValues(ages, ageGroupOrder)
	groups := orderedValues(genders, nil)
	catIndex := indexOf(categories)
	groupIndex := indexOf(groups)
	counts := make([][]float64, len(groups))
	for g := range counts {
		counts[g] = make([]float64, len(categories))
	}
	for i := 0; i < subset.NRows(); i++ {
		a, okA := ages.Key(i)
		g, okG := genders.Key(i)
		if okA && okG {
			counts[groupIndex[g]][catIndex[a]]++
		}
	}

	title := fmt.Sprintf("%s Distribution by Age Group and Gender", d.Condition)
	p, err := render.GroupedBars(title, preparation.AgeGroup, "Count of Medical Condition", categories, groups, counts)
	if err != nil {
		return render.Artifact{}, err
	}
	return d.Renderer.Save(title, p)
}

// orderedValues returns the distinct values of s, those in preferred first
// and in that order, the rest sorted.
func orderedValues(s *dataset.Series, preferred []string) []string {
	present := make(map[string]bool)
	for _, v := range s.Unique() {
		present[v] = true
	}
	var out []string
	for _, v := range preferred {
		if present[v] {
			out = append(out, v)
			delete(present, v)
		}
	}
	var rest []string
	for v := range present {
		rest = append(rest, v)
	}
	sort.Strings(rest)
	return append(out, rest...)
}

func indexOf(values []string) map[string]int {
	m := make(map[string]int, len(values))
	for i, v := range values {
		m[v] = i
	}
	return m
}
