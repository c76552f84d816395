package model

// Identity is the verified caller of an operation.
type Identity struct {
	ID   int64
	Role Role
}

func (i Identity) CanManageOrders() bool {
	return i.Role == RoleManager
}

func (i Identity) IsPartner() bool {
	return i.Role == RoleDelivery
}

// CanAdvance reports whether the caller may move the order along its lifecycle:
// managers may advance any order, partners only the ones assigned to them.
func (i Identity) CanAdvance(order *Order) bool {
	if i.Role == RoleManager {
		return true
	}
	return i.Role == RoleDelivery && order.AssignedPartner != nil && order.AssignedPartner.ID == i.ID
}
