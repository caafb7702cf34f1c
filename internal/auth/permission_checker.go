package auth

type PermissionChecker interface {
	HasCapability(granted []Capability, required Capability) bool
	HasAnyCapability(granted []Capability, required []Capability) bool
}

type DefaultPermissionChecker struct{}

func NewPermissionChecker() PermissionChecker {
	return &DefaultPermissionChecker{}
}

func (c *DefaultPermissionChecker) HasCapability(granted []Capability, required Capability) bool {
	return c.HasAnyCapability(granted, []Capability{required})
}

func (c *DefaultPermissionChecker) HasAnyCapability(granted []Capability, required []Capability) bool {
	for _, g := range granted {
		for _, r := range required {
			if g == r {
				return true
			}
		}
	}
	return false
}
