package models

// ToExtended stamps a persisted link with the connection type of the router
// bucket it came from. Absent endpoints stay absent.
func ToExtended(link Link, ct ConnectionType) ExtendedLink {
	ext := ExtendedLink{Name: link.Name}
	if link.From != nil {
		ext.From = &ExtendedEndpoint{
			Box:            link.From.Box,
			Pin:            link.From.Pin,
			ConnectionType: ct,
			Strategy:       link.From.Strategy,
			ServiceClass:   link.From.ServiceClass,
		}
	}
	if link.To != nil {
		ext.To = &ExtendedEndpoint{
			Box:            link.To.Box,
			Pin:            link.To.Pin,
			ConnectionType: ct,
			Strategy:       link.To.Strategy,
			ServiceClass:   link.To.ServiceClass,
		}
	}
	return ext
}

// ToPlain drops the connection type tags, producing the persisted form.
func ToPlain(ext ExtendedLink) Link {
	link := Link{Name: ext.Name}
	if ext.From != nil {
		link.From = &LinkEndpoint{
			Box:          ext.From.Box,
			Pin:          ext.From.Pin,
			Strategy:     ext.From.Strategy,
			ServiceClass: ext.From.ServiceClass,
		}
	}
	if ext.To != nil {
		link.To = &LinkEndpoint{
			Box:          ext.To.Box,
			Pin:          ext.To.Pin,
			Strategy:     ext.To.Strategy,
			ServiceClass: ext.To.ServiceClass,
		}
	}
	return link
}
