package engine

import (
	"strconv"
	"strings"
)

// HandshakeToken is the line a UCI engine prints once it has listed its options.
const HandshakeToken = "uciok"

type MessageType int

const (
	TypeOther MessageType = iota
	TypeHandshake
	TypeSearchInfo
	TypeBestMove
)

func (m MessageType) String() string {
	switch m {
	case TypeHandshake:
		return "Handshake"
	case TypeSearchInfo:
		return "SearchInfo"
	case TypeBestMove:
		return "BestMove"
	default:
		return "Other"
	}
}

// SearchInfo holds the fields of an "info" line this package cares about.
// Absent fields are nil.
type SearchInfo struct {
	Depth   *int
	ScoreCP *int
	Mate    *int
	PV      []string
}

// Complete reports whether the line carries a depth, a score and a line.
func (si SearchInfo) Complete() bool {
	return si.Depth != nil && (si.ScoreCP != nil || si.Mate != nil) && len(si.PV) > 0
}

type Message struct {
	Type     MessageType
	Info     SearchInfo
	BestMove string
	Ponder   string
}

// Parse tokenises one line of engine output.
func Parse(line string) Message {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Message{Type: TypeOther}
	}
	switch fields[0] {
	case HandshakeToken:
		if len(fields) == 1 {
			return Message{Type: TypeHandshake}
		}
	case "info":
		return Message{Type: TypeSearchInfo, Info: parseInfo(fields[1:])}
	case "bestmove":
		if len(fields) < 2 {
			return Message{Type: TypeOther}
		}
		msg := Message{Type: TypeBestMove, BestMove: fields[1]}
		for i := 2; i+1 < len(fields); i++ {
			if fields[i] == "ponder" {
				msg.Ponder = fields[i+1]
				break
			}
		}
		return msg
	}
	return Message{Type: TypeOther}
}

func parseInfo(fields []string) SearchInfo {
	var si SearchInfo
	for i := 0; i < len(fields); i++ {
		switch fields[i] {
		case "depth":
			if i+1 < len(fields) {
				if v, err := strconv.Atoi(fields[i+1]); err == nil {
					si.Depth = intPtr(v)
				}
				i++
			}
		case "score":
			if i+2 < len(fields) {
				if v, err := strconv.Atoi(fields[i+2]); err == nil {
					switch fields[i+1] {
					case "cp":
						si.ScoreCP = intPtr(v)
					case "mate":
						si.Mate = intPtr(v)
					}
				}
				i += 2
			}
		case "pv":
			si.PV = append([]string(nil), fields[i+1:]...)
			return si
		case "string":
			// free text until end of line
			return si
		}
	}
	return si
}

func intPtr(v int) *int {
	return &v
}
