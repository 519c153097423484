package md

// Attribute is a single HTML attribute.
type Attribute struct {
	Name  string
	Value string
}

// Attributes is an ordered attribute list. Order is preserved on output.
type Attributes []Attribute

// Get returns the value of the named attribute.
func (a Attributes) Get(name string) (string, bool) {
	for _, attr := range a {
		if attr.Name == name {
			return attr.Value, true
		}
	}
	return "", false
}

// Set replaces the value of an existing attribute in place or appends it.
func (a *Attributes) Set(name, value string) {
	for i := range *a {
		if (*a)[i].Name == name {
			(*a)[i].Value = value
			return
		}
	}
	*a = append(*a, Attribute{Name: name, Value: value})
}

// Merge returns a copy of a with every attribute of other set over it.
func (a Attributes) Merge(other Attributes) Attributes {
	merged := make(Attributes, 0, len(a)+len(other))
	merged = append(merged, a...)
	for _, attr := range other {
		merged.Set(attr.Name, attr.Value)
	}
	return merged
}

// AttributeExtender contributes attributes for a node. Returned attributes
// override element defaults with the same name.
type AttributeExtender func(n *Node) Attributes

// HeadingIDs is an AttributeExtender that exposes parser-assigned heading ids.
func HeadingIDs(n *Node) Attributes {
	if n.Kind != KindHeading || n.ID == "" {
		return nil
	}
	return Attributes{{Name: "id", Value: n.ID}}
}
