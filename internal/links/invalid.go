package links

import (
	"evalgo.org/schemaeditor/models"
)

// LostPin is a link endpoint whose box exists but no longer has the pin.
type LostPin struct {
	Direction models.Direction `json:"direction"`
	Box       string           `json:"box"`
	Pin       string           `json:"pin"`
}

// LostBox is a link endpoint whose box no longer exists.
type LostBox struct {
	Direction models.Direction `json:"direction"`
	Box       string           `json:"box"`
}

// InvalidLink is a link with at least one dangling endpoint.
type InvalidLink struct {
	Link      models.ExtendedLink `json:"link"`
	LostPins  []LostPin           `json:"lostPins,omitempty"`
	LostBoxes []LostBox           `json:"lostBoxes,omitempty"`
}

// FindInvalidLinks reports every link whose endpoint box or pin is missing,
// in link order. Absent endpoints are not reported here.
func FindInvalidLinks(all []models.ExtendedLink, boxesByName map[string]*models.Box) []InvalidLink {
	var invalid []InvalidLink
	for _, l := range all {
		item := InvalidLink{Link: l}
		for _, d := range []models.Direction{models.DirectionFrom, models.DirectionTo} {
			ep := l.Endpoint(d)
			if ep == nil {
				continue
			}
			box, ok := boxesByName[ep.Box]
			if !ok {
				item.LostBoxes = append(item.LostBoxes, LostBox{Direction: d, Box: ep.Box})
				continue
			}
			if !box.HasPin(ep.Pin) {
				item.LostPins = append(item.LostPins, LostPin{Direction: d, Box: ep.Box, Pin: ep.Pin})
			}
		}
		if len(item.LostPins) > 0 || len(item.LostBoxes) > 0 {
			invalid = append(invalid, item)
		}
	}
	return invalid
}

// LinksOfBox returns the links that have an endpoint on the named box.
func LinksOfBox(all []models.ExtendedLink, box string) []models.ExtendedLink {
	var out []models.ExtendedLink
	for _, l := range all {
		if (l.From != nil && l.From.Box == box) || (l.To != nil && l.To.Box == box) {
			out = append(out, l)
		}
	}
	return out
}
