package enums

// Intent is the coarse purpose assigned to an inbound message.
type Intent string

const (
	IntentGreeting         Intent = "greeting"
	IntentViewMenu         Intent = "view_menu"
	IntentAddToCart        Intent = "add_to_cart"
	IntentViewCart         Intent = "view_cart"
	IntentPlaceOrder       Intent = "place_order"
	IntentCheckOrderStatus Intent = "check_order_status"
	IntentHelp             Intent = "help"
	IntentGoodbye          Intent = "goodbye"
	IntentUnknown          Intent = "unknown"
)

// String implements fmt.Stringer.
func (i Intent) String() string {
	return string(i)
}
