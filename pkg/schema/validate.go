package schema

import "fmt"

// ValidateValue checks that a canonical value string is acceptable for a leafish node.
// Anydata values are opaque and always accepted.
func ValidateValue(n *Node, value string) error {
	switch n.Kind {
	case KindAnydata:
		return nil
	case KindLeaf, KindLeafList:
	default:
		return fmt.Errorf("%s %s holds no value", n.Kind, n.Name)
	}
	if n.Type == nil {
		return fmt.Errorf("%s %s has no type", n.Kind, n.Name)
	}

	parsed, err := n.Type.Parse(value)
	if err != nil {
		return err
	}
	if _, empty := n.Type.(*EmptyType); empty {
		return nil
	}
	return n.Type.Validate(parsed)
}

// ValidateDefaults checks that every declared default in the subtree is a valid value.
// It returns an AggregateError listing every invalid default.
func ValidateDefaults(root *Node) error {
	var errs []error
	var walk func(n *Node)
	walk = func(n *Node) {
		if n.HasDefault {
			if err := ValidateValue(n, n.Default); err != nil {
				errs = append(errs, &ValidationError{
					Key:    n.QName(),
					Reason: "invalid default: " + err.Error(),
					Value:  n.Default,
				})
			}
		}
		for _, group := range [][]*Node{n.Children, n.Input, n.Output} {
			for _, c := range group {
				walk(c)
			}
		}
	}
	walk(root)

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}
