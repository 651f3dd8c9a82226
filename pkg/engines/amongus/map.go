package amongus

import "github.com/sdbench/sdb/pkg/sdb"

// worldMap is the fixed, immutable 14-room graph of spec.md §4.7. Player
// occupancy is derived from each player's mutable Location field rather than
// stored redundantly on the map, per spec.md §9 "Cyclic structures" (the
// dual-representation bug the source's own spatial model suffered from).
type worldMap struct {
	rooms     []RoomID
	corridors map[RoomID]map[RoomID]bool
	vents     map[RoomID]map[RoomID]bool
	taskPool  map[RoomID][]string
}

const (
	Cafeteria     RoomID = "Cafeteria"
	Weapons       RoomID = "Weapons"
	Navigation    RoomID = "Navigation"
	O2            RoomID = "O2"
	Shields       RoomID = "Shields"
	Communications RoomID = "Communications"
	Storage       RoomID = "Storage"
	Electrical    RoomID = "Electrical"
	LowerEngine   RoomID = "LowerEngine"
	UpperEngine   RoomID = "UpperEngine"
	Security      RoomID = "Security"
	Reactor       RoomID = "Reactor"
	MedBay        RoomID = "MedBay"
	Admin         RoomID = "Admin"
)

// newWorldMap builds the static corridor/vent graph and per-room task pool:
// an immutable adjacency mapping loaded once, with a second edge kind (vent,
// impostor-only) layered on the same room set.
func newWorldMap() *worldMap {
	m := &worldMap{
		rooms:     []RoomID{Cafeteria, Weapons, Navigation, O2, Shields, Communications, Storage, Electrical, LowerEngine, UpperEngine, Security, Reactor, MedBay, Admin},
		corridors: make(map[RoomID]map[RoomID]bool),
		vents:     make(map[RoomID]map[RoomID]bool),
		taskPool: map[RoomID][]string{
			Cafeteria:      {"Empty Garbage"},
			Weapons:        {"Clear Asteroids"},
			Navigation:     {"Chart Course", "Stabilize Steering"},
			O2:             {"Clean O2 Filter"},
			Shields:        {"Prime Shields"},
			Communications: {"Download Data"},
			Storage:        {"Fuel Engines", "Sort Boxes"},
			Electrical:     {"Fix Wiring", "Calibrate Distributor"},
			LowerEngine:    {"Align Engine Output"},
			UpperEngine:    {"Align Engine Output"},
			Security:       {"Fix Wiring"},
			Reactor:        {"Unlock Manifolds", "Start Reactor"},
			MedBay:         {"Submit Scan", "Inspect Sample"},
			Admin:          {"Swipe Card", "Upload Data"},
		},
	}

	corridorEdges := [][2]RoomID{
		{Cafeteria, Weapons}, {Cafeteria, Admin}, {Cafeteria, Storage}, {Cafeteria, MedBay},
		{Weapons, Navigation}, {Weapons, O2},
		{Navigation, Shields}, {Navigation, O2},
		{O2, Shields}, {O2, Admin},
		{Shields, Storage}, {Shields, Communications},
		{Communications, Storage}, {Communications, MedBay},
		{Storage, Electrical}, {Storage, LowerEngine},
		{Electrical, LowerEngine}, {Electrical, Security}, {Electrical, MedBay},
		{LowerEngine, Reactor}, {LowerEngine, UpperEngine},
		{UpperEngine, Reactor}, {UpperEngine, Security},
		{Reactor, Security},
		{Security, MedBay},
		{Admin, Storage},
	}
	for _, e := range corridorEdges {
		m.linkCorridor(e[0], e[1])
	}

	ventTriangles := [][3]RoomID{
		{Electrical, MedBay, Security},
		{Reactor, UpperEngine, LowerEngine},
	}
	for _, tri := range ventTriangles {
		m.linkVent(tri[0], tri[1])
		m.linkVent(tri[1], tri[2])
		m.linkVent(tri[0], tri[2])
	}
	m.linkVent(Navigation, Shields)

	return m
}

func (m *worldMap) linkCorridor(a, b RoomID) {
	if m.corridors[a] == nil {
		m.corridors[a] = make(map[RoomID]bool)
	}
	if m.corridors[b] == nil {
		m.corridors[b] = make(map[RoomID]bool)
	}
	m.corridors[a][b] = true
	m.corridors[b][a] = true
}

func (m *worldMap) linkVent(a, b RoomID) {
	if m.vents[a] == nil {
		m.vents[a] = make(map[RoomID]bool)
	}
	if m.vents[b] == nil {
		m.vents[b] = make(map[RoomID]bool)
	}
	m.vents[a][b] = true
	m.vents[b][a] = true
}

func (m *worldMap) isRoom(r RoomID) bool {
	for _, x := range m.rooms {
		if x == r {
			return true
		}
	}
	return false
}

func (m *worldMap) corridorAdjacent(a, b RoomID) bool {
	return m.corridors[a] != nil && m.corridors[a][b]
}

func (m *worldMap) ventAdjacent(a, b RoomID) bool {
	return m.vents[a] != nil && m.vents[a][b]
}

func (m *worldMap) tasksFor(rooms []RoomID, numTasks int, rng *sdb.Rng) []task {
	pool := make([]task, 0, numTasks*2)
	for _, r := range rooms {
		for _, name := range m.taskPool[r] {
			pool = append(pool, task{Name: name, Room: r})
		}
	}
	sdb.ShuffleInts(rng, pool)
	if numTasks > len(pool) {
		numTasks = len(pool)
	}
	out := make([]task, numTasks)
	copy(out, pool[:numTasks])
	return out
}
