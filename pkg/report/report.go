// Package report renders the Markdown and SCSS reports written after a
// conversion run.
package report

import (
	"bytes"
	"embed"
	"fmt"
	"sort"
	"strings"
	"text/template"
	"time"

	sprig "github.com/go-task/slim-sprig/v3"
	"github.com/maruel/natural"

	"github.com/gnana997/classmod/pkg/duplicates"
	"github.com/gnana997/classmod/pkg/tracker"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

const (
	timestampLayout = "2006-01-02 15:04:05"
	dateLayout      = "2006-01-02"

	// locations listed per duplicated property
	maxLocations = 5
	// variables suggested in the duplicate reports
	maxSuggestions = 10
)

var templates = template.Must(template.New("report").
	Funcs(sprig.FuncMap()).
	Funcs(template.FuncMap{"step": func() int { return 0 }}).
	ParseFS(templatesFS, "templates/*.tmpl"))

func render(name string, funcs template.FuncMap, data any) (string, error) {
	tmpl := templates
	if funcs != nil {
		var err error
		if tmpl, err = templates.Clone(); err != nil {
			return "", fmt.Errorf("unable to clone templates: %w", err)
		}
		tmpl.Funcs(funcs)
	}

	buf := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(buf, name, data); err != nil {
		return "", fmt.Errorf("unable to render %s: %w", name, err)
	}
	return buf.String(), nil
}

// Mapping is one converted element as listed in a conversion guide.
type Mapping struct {
	Selector string
	Original []string
	Known    []string
	Unknown  []string
}

// GuideFile is the guide section for one source file.
type GuideFile struct {
	Name     string
	Unknown  []string // unique, sorted
	Mappings []Mapping
}

// GuideData is the input of Guide.
type GuideData struct {
	Feature   string
	Framework string
	Binding   string
	Generated time.Time
	Files     []GuideFile
}

// Guide renders a feature's CONVERSION_GUIDE.md. Files are listed in natural
// order of their names.
func Guide(d GuideData) (string, error) {
	files := make([]GuideFile, len(d.Files))
	copy(files, d.Files)
	sort.SliceStable(files, func(i, j int) bool {
		return natural.Less(files[i].Name, files[j].Name)
	})

	hasUnknown := false
	for _, f := range files {
		if len(f.Unknown) > 0 {
			hasUnknown = true
			break
		}
	}

	binding := d.Binding
	if binding == "" {
		binding = "styles"
	}

	return render("guide.md.tmpl", nil, struct {
		Feature    string
		Framework  string
		Binding    string
		Generated  string
		HasUnknown bool
		Files      []GuideFile
	}{
		Feature:    d.Feature,
		Framework:  d.Framework,
		Binding:    binding,
		Generated:  d.Generated.Format(timestampLayout),
		HasUnknown: hasUnknown,
		Files:      files,
	})
}

// FeatureSummary is the per-feature line of the conversion report.
type FeatureSummary struct {
	Feature          string
	FilesProcessed   int
	FilesFailed      int
	ClassesConverted int
	UnknownClasses   int
	SCSSGenerated    bool
	SourcesUpdated   bool
}

// SummaryData is the input of Summary.
type SummaryData struct {
	Generated time.Time
	Framework string
	Replace   bool
	// Target is the argument the run was started with, used in the
	// suggested command line.
	Target         string
	DuplicatesFile string
	Features       []FeatureSummary
	// Unknown holds the unresolved classes of the run; nil means none.
	Unknown *tracker.Tracker
}

type unknownFile struct {
	Name    string
	Entries []tracker.Entry
}

type unknownFeature struct {
	Name  string
	Files []*unknownFile
}

// groupUnknown groups the tracked entries by feature, then file, both in
// first-seen order.
func groupUnknown(t *tracker.Tracker) []*unknownFeature {
	if t == nil {
		return nil
	}

	var out []*unknownFeature
	for _, name := range t.Features() {
		f := &unknownFeature{Name: name}
		byFile := make(map[string]*unknownFile)
		for _, e := range t.ForFeature(name) {
			file, ok := byFile[e.File]
			if !ok {
				file = &unknownFile{Name: e.File}
				byFile[e.File] = file
				f.Files = append(f.Files, file)
			}
			file.Entries = append(file.Entries, e)
		}
		out = append(out, f)
	}
	return out
}

// SuccessRate returns converted / (converted + unknown) as a percentage with
// one decimal, "100.0" when there was nothing to convert.
func SuccessRate(converted, unknown int) string {
	if converted+unknown == 0 {
		return "100.0"
	}
	return fmt.Sprintf("%.1f", float64(converted)/float64(converted+unknown)*100)
}

// Summary renders CONVERSION_REPORT.md.
func Summary(d SummaryData) (string, error) {
	var files, converted, unknown int
	for _, f := range d.Features {
		files += f.FilesProcessed
		converted += f.ClassesConverted
		unknown += f.UnknownClasses
	}

	target := d.Target
	if target == "" {
		switch {
		case len(d.Features) > 1:
			target = "all"
		case len(d.Features) == 1:
			target = d.Features[0].Feature
		default:
			target = "featureName"
		}
	}

	step := 0
	funcs := template.FuncMap{"step": func() int {
		step++
		return step
	}}

	return render("summary.md.tmpl", funcs, struct {
		Generated      string
		Framework      string
		Replace        bool
		Target         string
		DuplicatesFile string
		Features       []FeatureSummary
		TotalFiles     int
		TotalConverted int
		TotalUnknown   int
		SuccessRate    string
		Unknown        []*unknownFeature
	}{
		Generated:      d.Generated.Format(timestampLayout),
		Framework:      d.Framework,
		Replace:        d.Replace,
		Target:         target,
		DuplicatesFile: d.DuplicatesFile,
		Features:       d.Features,
		TotalFiles:     files,
		TotalConverted: converted,
		TotalUnknown:   unknown,
		SuccessRate:    SuccessRate(converted, unknown),
		Unknown:        groupUnknown(d.Unknown),
	})
}

// DuplicatesData is the input of Duplicates and GlobalProperties.
type DuplicatesData struct {
	Generated time.Time
	// Features is the number of features analyzed.
	Features  int
	Threshold int
	Groups    []duplicates.Group
}

type groupView struct {
	Key      string
	Count    int
	Features []string
	Shown    []duplicates.Occurrence
	More     int
}

type variableView struct {
	Name  string
	Value string
}

type duplicatesView struct {
	Date      string
	Features  int
	Threshold int
	Groups    []groupView
	// Smart holds suggested variable names, Plain the property-derived ones.
	Smart []variableView
	Plain []variableView
}

func newDuplicatesView(d DuplicatesData) duplicatesView {
	threshold := d.Threshold
	if threshold <= 0 {
		threshold = duplicates.DefaultThreshold
	}

	v := duplicatesView{
		Date:      d.Generated.Format(dateLayout),
		Features:  d.Features,
		Threshold: threshold,
	}

	for i, g := range d.Groups {
		gv := groupView{
			Key:      g.Key,
			Count:    len(g.Occurrences),
			Features: g.Features(),
			Shown:    g.Occurrences,
		}
		if len(gv.Shown) > maxLocations {
			gv.Shown = gv.Shown[:maxLocations]
			gv.More = len(g.Occurrences) - maxLocations
		}
		v.Groups = append(v.Groups, gv)

		if i >= maxSuggestions {
			continue
		}
		v.Plain = append(v.Plain, variableView{
			Name:  "$" + strings.ReplaceAll(g.Property, "-", "_"),
			Value: g.Value,
		})
		if name := duplicates.SuggestVariable(g.Property, g.Value); name != "" {
			v.Smart = append(v.Smart, variableView{Name: name, Value: g.Value})
		}
	}
	return v
}

// Duplicates renders PROPERTY_DUPLICATES_REPORT.md.
func Duplicates(d DuplicatesData) (string, error) {
	return render("duplicates.md.tmpl", nil, newDuplicatesView(d))
}

// GlobalProperties renders the commented _global_properties.scss listing
// duplicated declarations and suggested variables.
func GlobalProperties(d DuplicatesData) (string, error) {
	return render("global_properties.scss.tmpl", nil, newDuplicatesView(d))
}
