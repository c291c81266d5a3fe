package marker

import (
	"fmt"
	"sort"

	"github.com/banshee-data/skittles/internal/sensor"
)

// MarkerMap is the immutable physical id → logical role table produced by
// calibration. The zero value maps nothing.
type MarkerMap struct {
	roles    map[int]sensor.Role
	physical [sensor.NumRoles]int
}

// newMarkerMap assigns roles by ascending physical id. ids must hold exactly
// sensor.NumRoles distinct values.
func newMarkerMap(ids []int) (MarkerMap, error) {
	if len(ids) != sensor.NumRoles {
		return MarkerMap{}, fmt.Errorf("marker map needs %d sensors, got %d", sensor.NumRoles, len(ids))
	}
	sorted := append([]int(nil), ids...)
	sort.Ints(sorted)

	m := MarkerMap{roles: make(map[int]sensor.Role, len(sorted))}
	for logical, physical := range sorted {
		if _, dup := m.roles[physical]; dup {
			return MarkerMap{}, fmt.Errorf("duplicate sensor id %d", physical)
		}
		m.roles[physical] = sensor.Role(logical)
		m.physical[logical] = physical
	}
	return m, nil
}

// Role returns the logical role of a physical sensor id.
func (m MarkerMap) Role(physicalID int) (sensor.Role, bool) {
	r, ok := m.roles[physicalID]
	return r, ok
}

// Physical returns the physical sensor id assigned to a role.
func (m MarkerMap) Physical(r sensor.Role) int {
	return m.physical[r]
}

// Len returns the number of mapped sensors.
func (m MarkerMap) Len() int {
	return len(m.roles)
}

// Entries returns a copy of the table.
func (m MarkerMap) Entries() map[int]sensor.Role {
	out := make(map[int]sensor.Role, len(m.roles))
	for k, v := range m.roles {
		out[k] = v
	}
	return out
}

func (m MarkerMap) String() string {
	return fmt.Sprintf("{%d→pivot, %d→tip}", m.physical[sensor.Pivot], m.physical[sensor.Tip])
}
