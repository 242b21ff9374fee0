package radical

import "fmt"

// Field is a named view of one parameter, in display order.
type Field struct {
	Name  string
	Label string
	Param Param
}

// Fields lists the radical's parameters: line shape first, then for every
// hyperfine group its spin, coupling and count.
func (r Radical) Fields() []Field {
	fields := []Field{
		{Name: "lw", Label: "lw [G]", Param: r.LineWidth},
		{Name: "lrtz", Label: "lrtz [%]", Param: r.Lorentzian},
		{Name: "amount", Label: "amount", Param: r.Amount},
		{Name: "dh1", Label: "dh1 [G]", Param: r.Offset},
	}
	for i, g := range r.Groups {
		n := i + 1
		fields = append(fields,
			Field{Name: fmt.Sprintf("I%d", n), Label: fmt.Sprintf("I%d", n), Param: g.Spin},
			Field{Name: fmt.Sprintf("a%d", n), Label: fmt.Sprintf("a%d [G]", n), Param: g.Coupling},
			Field{Name: fmt.Sprintf("n%d", n), Label: fmt.Sprintf("n%d", n), Param: g.Count},
		)
	}
	return fields
}
