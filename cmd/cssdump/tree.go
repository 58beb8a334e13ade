package main

import (
	"fmt"
	"strings"

	"github.com/xlab/treeprint"

	"github.com/chrisuehlinger/cssparse/css"
	"github.com/chrisuehlinger/cssparse/html"
	"github.com/chrisuehlinger/cssparse/network"
)

func addStyleSheet(tree treeprint.Tree, meta string, sheet *network.StyleSheet) {
	label := sheet.URL
	if label == "" {
		label = "(inline)"
	}
	if len(sheet.Media) > 0 {
		label += " [" + strings.Join(sheet.Media, ", ") + "]"
	}
	branch := tree.AddMetaBranch(meta, label)

	for _, rule := range sheet.Sheet.Rules() {
		addRule(branch, rule)
	}
	for _, imp := range sheet.Imports {
		addStyleSheet(branch, "import "+imp.Encoding, imp)
	}
}

func addRule(tree treeprint.Tree, rule css.Rule) {
	switch r := rule.(type) {
	case *css.RuleSet:
		addRuleSet(tree, r)
	case *css.ImportRule:
		label := "@import " + r.URI().String()
		if media := r.Media(); len(media) > 0 {
			label += " " + strings.Join(media, ", ")
		}
		tree.AddNode(label)
	case *css.MediaRule:
		branch := tree.AddBranch("@media " + strings.Join(r.Media(), ", "))
		for _, rs := range r.Rules() {
			addRuleSet(branch, rs)
		}
	case *css.FontFaceRule:
		addDeclarations(tree.AddBranch("@font-face"), r.Declarations())
	case *css.PageRule:
		label := "@page"
		if r.Pseudo() != "" {
			label += " :" + r.Pseudo()
		}
		addDeclarations(tree.AddBranch(label), r.Declarations())
	}
}

func addRuleSet(tree treeprint.Tree, rs *css.RuleSet) {
	var spec css.Specificity
	for _, sel := range rs.Selectors() {
		if s := sel.Specificity(); spec.Less(s) {
			spec = s
		}
	}
	branch := tree.AddMetaBranch(fmt.Sprintf("%d,%d,%d", spec.A, spec.B, spec.C), rs.SelectorText())
	addDeclarations(branch, rs.Declarations())
}

func addDeclarations(tree treeprint.Tree, decls []css.Declaration) {
	for _, d := range decls {
		tree.AddNode(d.String())
	}
}

func addInlineStyles(tree treeprint.Tree, styles []html.InlineStyle) {
	if len(styles) == 0 {
		return
	}
	branch := tree.AddBranch("style attributes")
	for _, style := range styles {
		el := branch.AddBranch("<" + style.Element.Data + ">")
		addDeclarations(el, style.Declarations)
	}
}
