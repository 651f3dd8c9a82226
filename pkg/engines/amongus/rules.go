package amongus

import (
	"time"

	"github.com/sdbench/sdb/pkg/sdb"
)

// Error codes recorded against ValidationError events.
const (
	codeNotAlive           = "NOT_ALIVE"
	codeNotAdjacentRoom    = "NOT_ADJACENT_ROOM"
	codeNotImpostor        = "NOT_IMPOSTOR"
	codeNotVentAdjacent    = "NOT_VENT_ADJACENT"
	codeOnCooldown         = "ON_COOLDOWN"
	codeTargetNotAlive     = "TARGET_NOT_ALIVE"
	codeTargetSelf         = "TARGET_SELF"
	codeTargetDifferentRoom = "TARGET_DIFFERENT_ROOM"
	codeNoCorpseInRoom     = "NO_CORPSE_IN_ROOM"
	codeEmergencyUsed      = "EMERGENCY_ALREADY_USED"
	codeNotInCafeteria     = "NOT_IN_CAFETERIA"
	codeReportPrecedence   = "REPORT_TAKES_PRECEDENCE"
	codeTaskNotAssigned    = "TASK_NOT_ASSIGNED"
	codeTaskWrongRoom      = "TASK_WRONG_ROOM"
	codeTaskAlreadyDone    = "TASK_ALREADY_DONE"
)

const throttleCooldown = 5 * time.Second

func roomArg(data map[string]any) (RoomID, bool) {
	s, ok := data["room"].(string)
	if !ok || s == "" {
		return "", false
	}
	return RoomID(s), true
}

func targetArg(data map[string]any) (sdb.PlayerID, bool) {
	switch v := data["target"].(type) {
	case int:
		return sdb.PlayerID(v), true
	case int64:
		return sdb.PlayerID(v), true
	case float64:
		return sdb.PlayerID(v), true
	default:
		return -1, false
	}
}

func taskIdxArg(data map[string]any) (int, bool) {
	switch v := data["task_index"].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
