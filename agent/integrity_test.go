package agent

import (
	"encoding/json"
	"testing"

	"github.com/sitewright/sitewright/model"
)

func writeInvocation(t *testing.T, id, path, content string) model.ToolInvocation {
	t.Helper()
	input, err := json.Marshal(model.WriteFileInput{Path: path, Content: content})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return model.ToolInvocation{ID: id, Name: model.ToolWriteFile, Input: input}
}

func created(paths ...string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, p := range paths {
		set[p] = struct{}{}
	}
	return set
}

func okOutcomes(invs ...model.ToolInvocation) []model.ToolOutcome {
	var outcomes []model.ToolOutcome
	for _, inv := range invs {
		outcomes = append(outcomes, model.SuccessOutcome(inv.ID, "ok"))
	}
	return outcomes
}

func TestMarkupPassFlagsMissingScript(t *testing.T) {
	html := writeInvocation(t, "w1", "index.html", `<html><script src="./app.js"></script></html>`)
	css := writeInvocation(t, "w2", "styles.css", "body {}")

	refs := CheckReferences(
		[]model.ToolInvocation{html, css},
		created("index.html", "styles.css"),
		okOutcomes(html, css),
	)

	if len(refs) != 1 {
		t.Fatalf("expected 1 dangling reference, got %d: %v", len(refs), refs)
	}
	want := DanglingReference{SourceFile: "index.html", Kind: "script", Target: "./app.js"}
	if refs[0] != want {
		t.Errorf("expected %+v, got %+v", want, refs[0])
	}
}

func TestMarkupPassSatisfiedBySameBatchWrite(t *testing.T) {
	html := writeInvocation(t, "w1", "index.html", `<script src="./app.js"></script>`)
	js := writeInvocation(t, "w2", "app.js", "console.log(1)")

	refs := CheckReferences(
		[]model.ToolInvocation{html, js},
		created("index.html", "app.js"),
		okOutcomes(html, js),
	)

	if len(refs) != 0 {
		t.Errorf("expected no dangling references, got %v", refs)
	}
}

func TestMarkupPassStylesheetLink(t *testing.T) {
	html := writeInvocation(t, "w1", "index.html",
		`<link rel="stylesheet" href="./styles.css"><link rel="icon" href="./favicon.ico">`)

	refs := CheckReferences(
		[]model.ToolInvocation{html},
		created("index.html"),
		okOutcomes(html),
	)

	// Only the stylesheet link is checked; the icon link is ignored.
	if len(refs) != 1 {
		t.Fatalf("expected 1 dangling reference, got %d: %v", len(refs), refs)
	}
	if refs[0].Kind != "link" || refs[0].Target != "./styles.css" {
		t.Errorf("unexpected reference: %+v", refs[0])
	}
}

func TestMarkupPassIgnoresExternalTargets(t *testing.T) {
	html := writeInvocation(t, "w1", "index.html",
		`<script src="https://cdn.example.com/lib.js"></script><link rel="stylesheet" href="//cdn.example.com/a.css">`)

	refs := CheckReferences([]model.ToolInvocation{html}, created("index.html"), okOutcomes(html))
	if len(refs) != 0 {
		t.Errorf("expected external targets to be ignored, got %v", refs)
	}
}

func TestMarkupPassSkipsErrorOutcomes(t *testing.T) {
	html := writeInvocation(t, "w1", "index.html", `<script src="./app.js"></script>`)
	outcomes := []model.ToolOutcome{model.ErrorOutcome("w1", "write failed")}

	refs := CheckReferences([]model.ToolInvocation{html}, created(), outcomes)
	if len(refs) != 0 {
		t.Errorf("expected failed writes to be skipped, got %v", refs)
	}
}

func TestModulePassResolvesViaSourceRoot(t *testing.T) {
	app := writeInvocation(t, "w1", "src/App.tsx", `import Button from './Button'`)
	button := writeInvocation(t, "w2", "src/Button.tsx", "export default function Button() {}")

	refs := CheckReferences(
		[]model.ToolInvocation{app, button},
		created("src/App.tsx", "src/Button.tsx"),
		okOutcomes(app, button),
	)

	if len(refs) != 0 {
		t.Errorf("expected ./Button to resolve against src/Button.tsx, got %v", refs)
	}
}

func TestModulePassReportsMissingImport(t *testing.T) {
	app := writeInvocation(t, "w1", "src/App.tsx", `import Missing from './Missing'`)

	refs := CheckReferences(
		[]model.ToolInvocation{app},
		created("src/App.tsx"),
		okOutcomes(app),
	)

	if len(refs) != 1 {
		t.Fatalf("expected 1 dangling import, got %d: %v", len(refs), refs)
	}
	want := DanglingReference{SourceFile: "src/App.tsx", Kind: "import", Target: "./Missing"}
	if refs[0] != want {
		t.Errorf("expected %+v, got %+v", want, refs[0])
	}
}

func TestModulePassIgnoresBareSpecifiers(t *testing.T) {
	app := writeInvocation(t, "w1", "src/index.ts",
		"import React from 'react'\nimport { api } from './api'\nimport 'zone.js'")
	api := writeInvocation(t, "w2", "src/api.ts", "export const api = {}")

	refs := CheckReferences(
		[]model.ToolInvocation{app, api},
		created("src/index.ts", "src/api.ts"),
		okOutcomes(app, api),
	)

	if len(refs) != 0 {
		t.Errorf("expected bare specifiers ignored and ./api resolved, got %v", refs)
	}
}

func TestModulePassScansEditReplacement(t *testing.T) {
	input, err := json.Marshal(model.EditFileInput{
		Path:    "src/main.js",
		Search:  "// imports",
		Replace: "import helper from './helper'",
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	edit := model.ToolInvocation{ID: "e1", Name: model.ToolEditFile, Input: input}

	refs := CheckReferences(
		[]model.ToolInvocation{edit},
		created("src/main.js"),
		[]model.ToolOutcome{model.SuccessOutcome("e1", "ok")},
	)

	if len(refs) != 1 || refs[0].Target != "./helper" {
		t.Errorf("expected dangling ./helper from edit replacement, got %v", refs)
	}
}

func TestModulePassIndexResolution(t *testing.T) {
	app := writeInvocation(t, "w1", "src/app.js", `import widgets from './widgets'`)
	index := writeInvocation(t, "w2", "src/widgets/index.js", "export default []")

	refs := CheckReferences(
		[]model.ToolInvocation{app, index},
		created("src/app.js", "src/widgets/index.js"),
		okOutcomes(app, index),
	)

	if len(refs) != 0 {
		t.Errorf("expected ./widgets to resolve via index variant, got %v", refs)
	}
}
