package commands

import (
	"fmt"

	"git.home.luguber.info/inful/docharness/internal/artifact"
	"git.home.luguber.info/inful/docharness/internal/baseline"
	"git.home.luguber.info/inful/docharness/internal/doctree"
)

// RegressFlags select and locate the baseline an artifact is compared to.
type RegressFlags struct {
	Regress     bool   `help:"Compare the artifact against its baseline."`
	BaselineDir string `name:"baseline-dir" default:"baselines" help:"Directory holding baselines."`
	Name        string `name:"name" help:"Baseline name (defaults to the artifact file name)."`
	Record      bool   `help:"Write the baseline instead of comparing."`
}

func (f RegressFlags) checker(g *Global, file string) baseline.Checker {
	if !f.Regress {
		return nil
	}
	name := f.Name
	if name == "" {
		name = file
	}
	store := baseline.NewStore(f.BaselineDir, baseline.ModeFor(f.Record),
		baseline.WithRecorder(g.Recorder), baseline.WithLogger(g.Logger))
	return store.For(name)
}

func reader(g *Global) *artifact.Reader {
	return artifact.NewReader(artifact.WithRecorder(g.Recorder), artifact.WithLogger(g.Logger))
}

// OutputCmd implements the 'output' command.
type OutputCmd struct {
	RegressFlags `embed:""`

	SrcDir        string `arg:"" name:"srcdir" help:"Documentation source directory."`
	File          string `arg:"" optional:"" default:"index.html" help:"File below _build/<builder>."`
	Builder       string `short:"b" default:"html" help:"Builder whose output is read."`
	Encoding      string `default:"utf-8" help:"Text encoding of the file."`
	ExtractBody   bool   `name:"extract-body" help:"Print only the inner HTML of <body>."`
	RemoveScripts bool   `name:"remove-scripts" help:"Drop <script> elements from the extracted body and the compared region; raw output is printed unchanged."`
}

func (o *OutputCmd) Run(g *Global, _ *CLI) error {
	content, err := reader(g).Output(artifact.Dir(o.SrcDir), artifact.OutputOptions{
		Builder:       o.Builder,
		Filename:      o.File,
		Encoding:      o.Encoding,
		ExtractBody:   o.ExtractBody,
		RemoveScripts: o.RemoveScripts,
		Regress:       o.Regress,
		Baseline:      o.checker(g, o.File),
	})
	if err != nil {
		return err
	}
	_, _ = fmt.Fprint(g.Stdout, content)
	return nil
}

// DoctreeCmd implements the 'doctree' command.
type DoctreeCmd struct {
	RegressFlags `embed:""`

	SrcDir   string `arg:"" name:"srcdir" help:"Documentation source directory."`
	File     string `arg:"" optional:"" default:"index.doctree" help:"File below _build/<folder>."`
	Folder   string `default:"doctrees" help:"Folder below _build holding serialized trees."`
	Encoding string `default:"utf-8" help:"Encoding used for the baseline."`
}

func (d *DoctreeCmd) Run(g *Global, _ *CLI) error {
	tree, err := reader(g).Doctree(artifact.Dir(d.SrcDir), artifact.DoctreeOptions{
		Filename: d.File,
		Folder:   d.Folder,
		Encoding: d.Encoding,
		Regress:  d.Regress,
		Baseline: d.checker(g, d.File),
	})
	if err != nil {
		return err
	}
	_, _ = fmt.Fprint(g.Stdout, doctree.Pformat(tree))
	return nil
}
