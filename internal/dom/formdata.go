package dom

// FormEntry is one name/value pair as produced by the form-data collection
// algorithm (spec.md §4.1's FormData subset): one entry per successful
// control, in tree order, with repeated names preserved as repeated
// entries (matching FormData.entries() semantics rather than collapsing
// into a map).
type FormEntry struct {
	Name  string
	Value string
}

// CollectFormData walks form's descendants and returns the successful
// control entries: named, non-disabled inputs/textareas/selects, with
// checkboxes/radios contributing only when checked, textareas contributing
// their text content until a live value is assigned, multi-selects
// contributing one entry per selected option, and a single-choice select
// with no selected option contributing its first option.
func (d *Document) CollectFormData(form Handle) []FormEntry {
	var out []FormEntry
	for _, h := range d.Descendants(form, false) {
		n := d.Node(h)
		name, hasName := n.Attr("name")
		if !hasName || name == "" {
			continue
		}
		if n.Props.Disabled {
			continue
		}
		switch n.TagName {
		case "input":
			typ, _ := n.Attr("type")
			switch typ {
			case "checkbox", "radio":
				if n.Props.Checked {
					val, ok := n.Attr("value")
					if !ok {
						val = "on"
					}
					out = append(out, FormEntry{Name: name, Value: val})
				}
			case "submit", "button", "reset", "image", "file":
				// Excluded from the successful-control subset this
				// runtime models; submit/button values are delivered
				// through the submit event instead.
			default:
				out = append(out, FormEntry{Name: name, Value: controlValue(n)})
			}
		case "textarea":
			val := controlValue(n)
			if !n.Props.ValueSet {
				val = d.TextContent(h)
			}
			out = append(out, FormEntry{Name: name, Value: val})
		case "select":
			fallback := NoHandle // first option, used only when none is selected
			if !n.HasAttr("multiple") {
				for _, opt := range d.ElementChildren(h) {
					if on := d.Node(opt); on.TagName == "option" && on.Props.Selected {
						fallback = NoHandle
						break
					} else if on.TagName == "option" && fallback == NoHandle {
						fallback = opt
					}
				}
			}
			for _, opt := range d.ElementChildren(h) {
				on := d.Node(opt)
				if on.TagName != "option" || (!on.Props.Selected && opt != fallback) {
					continue
				}
				val, ok := on.Attr("value")
				if !ok {
					val = d.TextContent(opt)
				}
				out = append(out, FormEntry{Name: name, Value: val})
			}
		}
	}
	return out
}

func controlValue(n *Node) string {
	if n.Props.ValueSet {
		return n.Props.Value
	}
	if v, ok := n.Attr("value"); ok {
		return v
	}
	return ""
}
