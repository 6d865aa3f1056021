package session

// SlotGroup is one day-part of the fixed time-slot catalog shown to
// patients. Slot labels are stored verbatim on the session record.
type SlotGroup struct {
	Label string   `json:"label"`
	Slots []string `json:"slots"`
}

// SlotCatalog is the fixed, non-configurable set of bookable slots. There is
// no conflict check between bookings for the same practitioner and slot.
var SlotCatalog = []SlotGroup{
	{Label: "Morning", Slots: []string{"8:00 AM", "9:00 AM", "10:00 AM", "11:00 AM"}},
	{Label: "Afternoon", Slots: []string{"12:00 PM", "1:00 PM", "2:00 PM", "3:00 PM"}},
	{Label: "Evening", Slots: []string{"4:00 PM", "5:00 PM", "6:00 PM", "7:00 PM"}},
	{Label: "Night", Slots: []string{"8:00 PM", "9:00 PM", "10:00 PM", "11:00 PM"}},
}

var slotOrder = buildSlotOrder()

func buildSlotOrder() map[string]int {
	order := make(map[string]int)
	position := 0
	for _, group := range SlotCatalog {
		for _, slot := range group.Slots {
			order[slot] = position
			position++
		}
	}
	return order
}

// SlotIndex returns the catalog position of a slot label, used as the
// tie-break when two sessions share a date. Labels outside the catalog sort
// after every catalog slot.
func SlotIndex(slot string) int {
	if idx, ok := slotOrder[slot]; ok {
		return idx
	}
	return len(slotOrder)
}
