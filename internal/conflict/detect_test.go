package conflict

import (
	"reflect"
	"testing"

	"github.com/bayleafwalker/quire/internal/graph"
)

func pkg(name, version string, deps ...graph.Dependency) *graph.PackageNode {
	return &graph.PackageNode{
		Name:         name,
		Version:      version,
		Dependencies: deps,
		Security:     graph.SecurityUnknown,
		License:      graph.License{Kind: graph.LicenseUnknown},
	}
}

func TestDetectVersion_AdvisoryWhenOneVersionSatisfiesAll(t *testing.T) {
	g := graph.New()
	g.AddNode(pkg("app", "1.0.0", graph.Dependency{Name: "lib", Constraint: ">=1.0.0"}))
	g.AddNode(pkg("tool", "1.0.0", graph.Dependency{Name: "lib@2.0.0", Constraint: "=2.0.0"}))
	g.AddNode(pkg("lib", "1.4.0"))
	g.AddNode(pkg("lib@2.0.0", "2.0.0"))

	d := &Detector{}
	reports := d.Detect(g)

	if len(reports) != 1 {
		t.Fatalf("expected 1 report, got %d: %+v", len(reports), reports)
	}
	r := reports[0]
	if r.Type != TypeVersion || r.Severity != SeverityAdvisory {
		t.Fatalf("expected advisory version conflict, got %s/%s", r.Type, r.Severity)
	}
	if r.Recommended == nil || r.Recommended.Kind != StrategyPinVersion || r.Recommended.Version != "2.0.0" {
		t.Fatalf("expected recommended pin to 2.0.0, got %+v", r.Recommended)
	}
}

func TestDetectVersion_BlockingWhenNoVersionSatisfiesAll(t *testing.T) {
	g := graph.New()
	g.AddNode(pkg("app", "1.0.0", graph.Dependency{Name: "lib", Constraint: "<2.0.0"}))
	g.AddNode(pkg("tool", "1.0.0", graph.Dependency{Name: "lib@2.0.0", Constraint: "=2.0.0"}))
	g.AddNode(pkg("lib", "1.4.0"))
	g.AddNode(pkg("lib@2.0.0", "2.0.0"))

	d := &Detector{}
	reports := d.Detect(g)

	if len(reports) != 1 {
		t.Fatalf("expected 1 report, got %d", len(reports))
	}
	r := reports[0]
	if r.Severity != SeverityBlocking {
		t.Fatalf("expected blocking, got %s", r.Severity)
	}
	if r.Recommended == nil || r.Recommended.Version != "2.0.0" || r.Recommended.Note == "" {
		t.Fatalf("expected pin-highest with downgrade note, got %+v", r.Recommended)
	}
	foundDefer := false
	for _, c := range r.Candidates {
		if c.Kind == StrategyDefer {
			foundDefer = true
		}
	}
	if !foundDefer {
		t.Fatalf("expected a defer candidate, got %+v", r.Candidates)
	}
}

func TestDetectVersion_UsesExtraConstraints(t *testing.T) {
	g := graph.New()
	g.AddNode(pkg("lib", "1.4.0"))
	g.AddNode(pkg("lib@2.0.0", "2.0.0"))

	d := &Detector{ExtraConstraints: map[string][]string{"lib": {"=1.4.0"}}}
	reports := d.Detect(g)

	if len(reports) != 1 {
		t.Fatalf("expected 1 report, got %d", len(reports))
	}
	r := reports[0]
	if r.Severity != SeverityAdvisory || r.Recommended.Version != "1.4.0" {
		t.Fatalf("expected advisory pin to 1.4.0, got %s/%+v", r.Severity, r.Recommended)
	}
}

func TestDetectDirect_BlockingWithoutStrategy(t *testing.T) {
	g := graph.New()
	x := pkg("x", "1.0.0")
	x.ConflictsWith = []string{"y"}
	y := pkg("y", "1.0.0")
	y.ConflictsWith = []string{"x"}
	g.AddNode(x)
	g.AddNode(y)

	d := &Detector{Roots: map[string]bool{"x": true, "y": true}}
	reports := d.Detect(g)

	if len(reports) != 1 {
		t.Fatalf("expected mutual declarations to collapse into 1 report, got %d: %+v", len(reports), reports)
	}
	r := reports[0]
	if r.Type != TypeDirect || r.Severity != SeverityBlocking {
		t.Fatalf("expected blocking direct conflict, got %s/%s", r.Type, r.Severity)
	}
	if r.Recommended != nil {
		t.Fatalf("direct conflicts must not carry an automatic strategy, got %+v", r.Recommended)
	}
	if !reflect.DeepEqual(r.Packages, []string{"x", "y"}) {
		t.Fatalf("packages = %v", r.Packages)
	}
}

func TestDetectDirect_BreakingWhenNeitherRequired(t *testing.T) {
	g := graph.New()
	x := pkg("x", "1.0.0")
	x.ConflictsWith = []string{"y"}
	g.AddNode(x)
	g.AddNode(pkg("y", "1.0.0"))

	d := &Detector{}
	reports := d.Detect(g)

	if len(reports) != 1 || reports[0].Severity != SeverityBreaking {
		t.Fatalf("expected breaking direct conflict, got %+v", reports)
	}
}

func TestDetectLicense_CopyleftAgainstProprietary(t *testing.T) {
	g := graph.New()
	gpl := pkg("gpl-lib", "1.0.0")
	gpl.License = graph.License{Kind: graph.LicenseCopyleft, DistributionAllowed: true}
	prop := pkg("closed-lib", "1.0.0")
	prop.License = graph.License{Kind: graph.LicenseProprietary}
	neutral := pkg("mit-lib", "1.0.0")
	neutral.License = graph.License{Kind: graph.LicensePermissive, DistributionAllowed: true}
	g.AddNode(gpl)
	g.AddNode(prop)
	g.AddNode(neutral)

	d := &Detector{}
	reports := d.Detect(g)

	if len(reports) != 1 {
		t.Fatalf("expected 1 license report, got %d: %+v", len(reports), reports)
	}
	r := reports[0]
	if r.Type != TypeLicense || r.Severity != SeverityWarning {
		t.Fatalf("expected license warning, got %s/%s", r.Type, r.Severity)
	}
	if r.Recommended == nil || r.Recommended.Kind != StrategyManualReview {
		t.Fatalf("expected manual review recommendation, got %+v", r.Recommended)
	}
}

func TestDetectPlatform_BreakingWithNarrowFallback(t *testing.T) {
	g := graph.New()
	lib := pkg("narrow-lib", "1.0.0")
	lib.Platforms = []string{"p1"}
	g.AddNode(lib)

	d := &Detector{TargetPlatforms: []string{"p1", "p2"}}
	reports := d.Detect(g)

	if len(reports) != 1 {
		t.Fatalf("expected 1 report, got %d", len(reports))
	}
	r := reports[0]
	if r.Type != TypePlatform || r.Severity != SeverityBreaking {
		t.Fatalf("expected breaking platform conflict, got %s/%s", r.Type, r.Severity)
	}
	if r.Recommended == nil || r.Recommended.Kind != StrategyNarrowPlatforms {
		t.Fatalf("expected narrow-platforms recommendation, got %+v", r.Recommended)
	}
	if !reflect.DeepEqual(r.Recommended.Platforms, []string{"p1"}) {
		t.Fatalf("narrowed set = %v", r.Recommended.Platforms)
	}
}

func TestDetectPlatform_PrefersRegisteredAlternative(t *testing.T) {
	g := graph.New()
	lib := pkg("narrow-lib", "1.0.0")
	lib.Platforms = []string{"p1"}
	g.AddNode(lib)

	d := &Detector{
		TargetPlatforms: []string{"p1", "p2"},
		Alternatives: func(name string) (string, bool) {
			if name == "narrow-lib" {
				return "wide-lib", true
			}
			return "", false
		},
	}
	reports := d.Detect(g)

	if len(reports) != 1 {
		t.Fatalf("expected 1 report, got %d", len(reports))
	}
	r := reports[0]
	if r.Recommended == nil || r.Recommended.Kind != StrategySubstitute || r.Recommended.Replacement != "wide-lib" {
		t.Fatalf("expected substitute recommendation, got %+v", r.Recommended)
	}
}

func TestDetectPlatform_NoTargetsMeansNoConflicts(t *testing.T) {
	g := graph.New()
	lib := pkg("narrow-lib", "1.0.0")
	lib.Platforms = []string{"p1"}
	g.AddNode(lib)

	d := &Detector{}
	if reports := d.Detect(g); len(reports) != 0 {
		t.Fatalf("expected no reports without a target set, got %+v", reports)
	}
}

func TestSortReports(t *testing.T) {
	reports := []Report{
		{ID: "b", Severity: SeverityAdvisory},
		{ID: "c", Severity: SeverityBlocking},
		{ID: "a", Severity: SeverityBlocking},
		{ID: "d", Severity: SeverityBreaking},
	}
	SortReports(reports)

	var ids []string
	for _, r := range reports {
		ids = append(ids, r.ID)
	}
	if !reflect.DeepEqual(ids, []string{"a", "c", "d", "b"}) {
		t.Fatalf("order = %v", ids)
	}
}
