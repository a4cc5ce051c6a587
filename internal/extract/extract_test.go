package extract

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"relbench/internal/artifact"
	"relbench/internal/errors"
	"relbench/internal/relation"
)

// writeArtifact stores content under a temporary data dir and returns a
// handle to it.
func writeArtifact(t *testing.T, fileName, content string) artifact.Handle {
	t.Helper()

	dataDir := t.TempDir()
	dir := filepath.Join(dataDir, "demo")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("failed to create project dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, fileName), []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", fileName, err)
	}
	return artifact.NewHandle(dataDir, "demo", "test", fileName)
}

func mustExtract(t *testing.T, e Extractor, h artifact.Handle, level relation.Level) relation.Sequence {
	t.Helper()

	seq, err := e.Extract(h, level)
	if err != nil {
		t.Fatalf("%s.Extract(%s) error = %v", e.Name(), level, err)
	}
	return seq
}

func assertNoSelfRelations(t *testing.T, seq relation.Sequence) {
	t.Helper()

	for _, s := range seq {
		r, ok := relation.Parse(s)
		if !ok {
			t.Errorf("relation %q has no arrow", s)
			continue
		}
		if r.IsSelf() {
			t.Errorf("self-relation %q emitted", s)
		}
	}
}

const dependencyFinderXML = `<?xml version="1.0" encoding="utf-8" ?>
<!DOCTYPE dependencies SYSTEM "https://depfind.sourceforge.io/dtd/dependencies.dtd">
<dependencies>
    <package confirmed="yes">
        <name>com.b</name>
        <class confirmed="yes">
            <name>com.b.Bar</name>
            <inbound type="class" confirmed="yes">com.a.Foo</inbound>
            <inbound type="class" confirmed="no">com.a.Ghost</inbound>
            <inbound type="feature" confirmed="yes">com.a.Baz$Inner.go(int)</inbound>
            <inbound type="class" confirmed="yes">com.a.Foo$1</inbound>
            <inbound type="class" confirmed="yes">com.b.Bar</inbound>
            <inbound type="class" confirmed="yes"></inbound>
        </class>
        <class confirmed="yes">
            <name>com.b.Qux$Nested</name>
            <inbound type="feature" confirmed="yes">com.a.Foo.call()</inbound>
        </class>
        <class confirmed="no">
            <name>com.b.Unconfirmed</name>
            <inbound type="class" confirmed="yes">com.a.Foo</inbound>
        </class>
    </package>
    <package confirmed="no">
        <name>com.c</name>
        <class confirmed="yes">
            <name>com.c.Hidden</name>
            <inbound type="class" confirmed="yes">com.a.Foo</inbound>
        </class>
    </package>
</dependencies>
`

func TestDependencyFinder_Extract(t *testing.T) {
	h := writeArtifact(t, "dependencyFinder.xml", dependencyFinderXML)
	df := NewDependencyFinder(DefaultOptions())

	got := mustExtract(t, df, h, relation.LevelClass)
	want := relation.Sequence{
		"com.a.Foo->com.b.Bar",
		"com.a.Baz->com.b.Bar",
		"com.a.Foo->com.b.Qux",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Extract() = %v, want %v", got, want)
	}
	assertNoSelfRelations(t, got)
}

func TestDependencyFinder_UnconfirmedInboundNeverEmitted(t *testing.T) {
	h := writeArtifact(t, "dependencyFinder.xml", dependencyFinderXML)
	got := mustExtract(t, NewDependencyFinder(DefaultOptions()), h, relation.LevelClass)

	for _, s := range got {
		if strings.Contains(s, "Ghost") || strings.Contains(s, "Unconfirmed") || strings.Contains(s, "Hidden") {
			t.Errorf("unconfirmed edge %q emitted", s)
		}
	}
}

func TestDependencyFinder_MalformedDocument(t *testing.T) {
	h := writeArtifact(t, "dependencyFinder.xml", "<dependencies><package>")
	_, err := NewDependencyFinder(DefaultOptions()).Extract(h, relation.LevelClass)
	if !errors.IsCode(err, errors.StructuralParseFailure) {
		t.Fatalf("Extract() error = %v, want %s", err, errors.StructuralParseFailure)
	}
	var re *errors.RelError
	if !errors.As(err, &re) {
		t.Fatalf("Extract() error %T is not a RelError", err)
	}
	if d, ok := re.Details.(ArtifactDetails); !ok || d.Path != h.Path() {
		t.Errorf("Details = %#v, want path %s", re.Details, h.Path())
	}
}

func TestExtract_MissingArtifactAndUnsupportedLevel(t *testing.T) {
	missing := artifact.NewHandle(t.TempDir(), "demo", "test", "absent")

	for _, e := range DefaultRegistry(DefaultOptions()).All() {
		t.Run(e.Name(), func(t *testing.T) {
			level := e.Levels()[0]
			seq, err := e.Extract(missing, level)
			if len(seq) != 0 {
				t.Errorf("Extract() on missing artifact returned %d relations", len(seq))
			}
			if !errors.IsCode(err, errors.MissingArtifact) {
				t.Errorf("Extract() error = %v, want %s", err, errors.MissingArtifact)
			}
			if errors.CodeOf(err).Fatal() {
				t.Errorf("missing artifact reported as fatal")
			}

			if !e.Supports(relation.LevelFile) {
				_, err := e.Extract(missing, relation.LevelFile)
				if !errors.IsCode(err, errors.UnsupportedLevel) {
					t.Errorf("Extract(FILE) error = %v, want %s", err, errors.UnsupportedLevel)
				}
			}
		})
	}
}

const jarvizJSONL = `{"sourceClass":"com.a.Foo","sourceMethod":"run","targetClass":"com.b.Bar","targetMethod":"go"}
{"sourceClass":"com.a.Foo$Inner","sourceMethod":"x","targetClass":"com.b.Bar"}
{"sourceClass":"com.a.Foo$1","sourceMethod":"x","targetClass":"com.b.Bar","targetMethod":"y"}
this is not json

{"sourceClass":"com.a.Foo","sourceMethod":"run","targetClass":"com.a.Foo","targetMethod":"run"}
{"sourceClass":"com.a.Foo","sourceMethod":"run","targetClass":"com.a.Foo","targetMethod":"stop"}
{"sourceClass":"N/A","sourceMethod":"run","targetClass":"com.b.Bar","targetMethod":"go"}
`

func TestJarviz_Extract(t *testing.T) {
	h := writeArtifact(t, "jarviz.jsonl", jarvizJSONL)
	j := NewJarviz(DefaultOptions())

	tests := []struct {
		level relation.Level
		want  relation.Sequence
	}{
		{
			level: relation.LevelClass,
			want: relation.Sequence{
				"com.a.Foo->com.b.Bar",
				"com.a.Foo.Inner->com.b.Bar",
			},
		},
		{
			level: relation.LevelMethod,
			want: relation.Sequence{
				"com.a.Foo:run->com.b.Bar:go",
				"com.a.Foo$1:x->com.b.Bar:y",
				"com.a.Foo:run->com.a.Foo:stop",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			got := mustExtract(t, j, h, tt.level)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Extract() = %v, want %v", got, tt.want)
			}
			assertNoSelfRelations(t, got)
		})
	}
}

func TestJarviz_SameMethodName(t *testing.T) {
	h := writeArtifact(t, "jarviz.jsonl",
		`{"sourceClass":"a.A","sourceMethod":"run","targetClass":"b.B","targetMethod":"run"}
{"sourceClass":"a.A","sourceMethod":"foo","targetClass":"a.A","targetMethod":"bar"}
`)
	j := NewJarviz(DefaultOptions())

	tests := []struct {
		level relation.Level
		want  relation.Sequence
	}{
		{relation.LevelMethod, relation.Sequence{"a.A:foo->a.A:bar"}},
		{relation.LevelClass, relation.Sequence{"a.A->b.B"}},
	}
	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			got := mustExtract(t, j, h, tt.level)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Extract() = %v, want %v", got, tt.want)
			}
		})
	}
}

const refExpoCSV = "\ufeffsourceClassFull,sourceStructure,sourceMethod,sourcePath,targetClassFull,targetStructure,targetMethod,targetPath\n" +
	"pkg.Foo,,run,src/main/java/pkg/Foo.java,pkg.Bar,Bar.go,go,src/main/java/pkg/Bar.java\n" +
	"pkg.Foo,,,src/main/java/pkg/Foo.java,pkg.Foo,,,src/main/java/pkg/Foo.java\n" +
	",,helper,app/util.py,,,,app/core.py\n" +
	"nan,,,,pkg.Bar,,,src/main/java/pkg/Bar.java\n" +
	"pkg.Baz,Baz.m,m,src/main/java/pkg/Baz.java,pkg.Bar,,,src/main/java/pkg/Bar.java\n"

func TestRefExpo_Extract(t *testing.T) {
	h := writeArtifact(t, "refExpo.csv", refExpoCSV)
	x := NewRefExpo(DefaultOptions())

	tests := []struct {
		level relation.Level
		want  relation.Sequence
	}{
		{
			level: relation.LevelClass,
			want: relation.Sequence{
				"pkg.Foo->pkg.Bar",
				"pkg.Baz->pkg.Bar",
			},
		},
		{
			level: relation.LevelMethod,
			want: relation.Sequence{
				"pkg.Foo.run->pkg.Bar.go",
				"app.util.helper->app.core",
				"pkg.Baz.m->pkg",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			got := mustExtract(t, x, h, tt.level)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Extract() = %v, want %v", got, tt.want)
			}
			assertNoSelfRelations(t, got)
		})
	}
}

func TestEndpoint_Member(t *testing.T) {
	tests := []struct {
		name string
		e    Endpoint
		want string
	}{
		{
			name: "class and method without structure",
			e:    Endpoint{ClassFull: "pkg.Foo", Method: "run", Path: "src/main/java/pkg/Foo.java"},
			want: "pkg.Foo.run",
		},
		{
			name: "structure qualified by package",
			e:    Endpoint{ClassFull: "pkg.Foo", Structure: "Foo.run", Path: "src/main/java/pkg/Foo.java"},
			want: "pkg.Foo.run",
		},
		{
			name: "free function in python module",
			e:    Endpoint{Method: "main", Path: "tool/cli.py"},
			want: "tool.cli.main",
		},
		{
			name: "module only",
			e:    Endpoint{Path: "tool/cli.py"},
			want: "tool.cli",
		},
		{
			name: "nothing known",
			e:    Endpoint{},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.e.Member(); got != tt.want {
				t.Errorf("Member() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRefExpo_NoKnownColumns(t *testing.T) {
	h := writeArtifact(t, "refExpo.csv", "a,b\n1,2\n")
	_, err := NewRefExpo(DefaultOptions()).Extract(h, relation.LevelClass)
	if !errors.IsCode(err, errors.StructuralParseFailure) {
		t.Fatalf("Extract() error = %v, want %s", err, errors.StructuralParseFailure)
	}
}

const sonargraphCSV = "From,From File,To,To File\n" +
	"W:M:./src/main/java:com:acme:Foo.java:Foo,W:M:./src/main/java:com:acme:Foo.java,W:M:./src/main/java:com:acme:util:Bar.java:Bar,W:M:./src/main/java:com:acme:util:Bar.java\n" +
	"W:M:./src/main/java:com:acme:Foo.java:Foo:Inner,W:M:./src/main/java:com:acme:Foo.java,W:M:./src/main/java:com:acme:Foo.java:Foo,W:M:./src/main/java:com:acme:Foo.java\n" +
	"W:M:External:java:lang:String,,W:M:./src/main/java:com:acme:Foo.java:Foo,W:M:./src/main/java:com:acme:Foo.java\n"

func TestSonargraph_Extract(t *testing.T) {
	h := writeArtifact(t, "sonargraph.csv", sonargraphCSV)
	got := mustExtract(t, NewSonargraph(DefaultOptions()), h, relation.LevelClass)

	want := relation.Sequence{"com.acme.Foo->com.acme.util.Bar"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Extract() = %v, want %v", got, want)
	}
}

func TestQualifiedClass(t *testing.T) {
	tests := []struct {
		element string
		file    string
		want    string
	}{
		{"W:M:./src:app:models:User.py:User", "W:M:./src:app:models:User.py", "app.models.User"},
		{"W:M:./src/main/java:Top.java:Top", "W:M:./src/main/java:Top.java", ""},
		{"W:M:./src/main/java:a:B.java:B", "", ""},
	}

	for _, tt := range tests {
		if got := QualifiedClass(tt.element, tt.file); got != tt.want {
			t.Errorf("QualifiedClass(%q, %q) = %q, want %q", tt.element, tt.file, got, tt.want)
		}
	}
}

func TestUnmangleLocator(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"mod____init____", "mod.__init__"},
		{"mod____init__", "mod.__init__"},
		{"a__b__c", "a.b.c"},
		{"pkg__mod____init____foo", "pkg.mod.__init__.foo"},
		{"pkg__Cls____call____helper", "pkg.Cls.__call__.helper"},
		{"mod___private", "mod._private"},
		{`"quoted__name"`, "quoted.name"},
		{"plain", "plain"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := UnmangleLocator(tt.in); got != tt.want {
				t.Errorf("UnmangleLocator(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

const pyanDot = `digraph G {
    graph [rankdir=TB, clusterrank="local"];
    app__main -> app__util__helper [style="solid", color="#000000"];
    app__main -> app__main [style="solid"];
    app__util__helper -> app__util____init____ [style="solid"];
    app__util__helper -> app__store__cache__set [style="solid"];
    app__main -> app__io__print
    app__main -> a -> b [style="solid"];
    app__main [label="main"];
}
`

func TestPyan_Extract(t *testing.T) {
	h := writeArtifact(t, "pyan.dot", pyanDot)
	got := mustExtract(t, NewPyan(DefaultOptions()), h, relation.LevelMethod)

	want := relation.Sequence{
		"app.main->app.util.helper",
		"app.util.helper->app.util.__init__",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Extract() = %v, want %v", got, want)
	}
	assertNoSelfRelations(t, got)
}

const pycgJSON = `{
  "modules": {
    "internal": {
      "app/main.py": {
        "namespaces": {
          "1": {"namespace": "/app/main"},
          "2": {"namespace": "/app/main/run()"},
          "3": {"namespace": "/app/main/Job/__init__()"}
        }
      },
      "app/util.py": {
        "namespaces": {
          "4": {"namespace": "/app/util/helper()"},
          "5": {"namespace": "/app/util/other()"}
        }
      }
    },
    "external": {}
  },
  "graph": {
    "internalCalls": [["2", "4"], [2, 5], ["2", "2"], ["2", "3"], ["1", "4"], ["9", "4"], ["2"]],
    "externalCalls": []
  }
}`

func TestPyCG_Extract(t *testing.T) {
	h := writeArtifact(t, "pycg.json", pycgJSON)
	got := mustExtract(t, NewPyCG(DefaultOptions()), h, relation.LevelMethod)

	want := relation.Sequence{
		"app.main.run->app.util.helper",
		"app.main.run->app.util.other",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Extract() = %v, want %v", got, want)
	}
	assertNoSelfRelations(t, got)
}

func TestPyCG_MissingSections(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"no modules", `{"graph": {"internalCalls": []}}`},
		{"no graph", `{"modules": {"internal": {}}}`},
		{"not json", `[1, 2`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := writeArtifact(t, "pycg.json", tt.doc)
			_, err := NewPyCG(DefaultOptions()).Extract(h, relation.LevelMethod)
			if !errors.IsCode(err, errors.StructuralParseFailure) {
				t.Fatalf("Extract() error = %v, want %s", err, errors.StructuralParseFailure)
			}
		})
	}
}
