// Package definition loads state machines declared in YAML and compiles them
// into fsm catalogs. Actions are referenced by name and bound at build time.
//
//	def, err := definition.Load("machines/orders.yaml")
//	if err != nil {
//		return err
//	}
//	catalog, err := definition.Build(def, definition.Actions[*Order]{
//		"charge": fsm.ActionFunc[*Order](billing.Charge),
//	})
package definition
