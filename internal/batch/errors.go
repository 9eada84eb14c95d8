package batch

import (
	"errors"

	"github.com/signalsfoundry/metromap/internal/state"
)

var (
	// ErrMalformedBatch indicates the command file itself cannot be read.
	ErrMalformedBatch = errors.New("malformed batch")
	// ErrMalformedCommand indicates a missing or mistyped parameter.
	ErrMalformedCommand = errors.New("malformed command")
	// ErrUnknownCommand indicates a command name with no handler.
	ErrUnknownCommand = errors.New("unknown command")
)

// commandRole is the entity a command acts on when the error carries no
// role of its own.
var commandRole = map[string]state.Role{
	"createCity":    state.RoleCity,
	"deleteCity":    state.RoleCity,
	"mapCity":       state.RoleCity,
	"unmapCity":     state.RoleCity,
	"mapRoad":       state.RoleRoad,
	"unmapRoad":     state.RoleRoad,
	"mapAirport":    state.RoleAirport,
	"unmapAirport":  state.RoleAirport,
	"mapTerminal":   state.RoleTerminal,
	"unmapTerminal": state.RoleTerminal,
}

// ErrorCode maps a command failure onto the report's error code. The same
// underlying error reads differently depending on the command and on
// which entity it was raised for.
func ErrorCode(command string, err error) string {
	if err == nil {
		return ""
	}
	role := state.RoleOf(err)
	if role == "" {
		role = commandRole[command]
	}
	connecting := command == "mapAirport" || command == "mapTerminal"

	switch {
	case errors.Is(err, ErrMalformedCommand):
		return "malformedCommand"
	case errors.Is(err, ErrUnknownCommand):
		return "unknownCommand"

	case errors.Is(err, state.ErrDuplicateName):
		return byRole(role, "duplicateCityName", "duplicateAirportName", "duplicateTerminalName", "duplicateCityName")
	case errors.Is(err, state.ErrDuplicateCoordinate):
		return byRole(role, "duplicateCityCoordinates", "duplicateAirportCoordinates", "duplicateTerminalCoordinates", "duplicateCityCoordinates")
	case errors.Is(err, state.ErrAddOutOfBounds):
		return "terminalOutOfBounds"
	case errors.Is(err, state.ErrOutOfBounds):
		return byRole(role, "cityOutOfBounds", "airportOutOfBounds", "terminalOutOfBounds", "roadOutOfBounds")
	case errors.Is(err, state.ErrPMRuleViolation):
		return byRole(role, "cityViolatesPMRules", "airportViolatesPMRules", "terminalViolatesPMRules", "roadViolatesPMRules")
	case errors.Is(err, state.ErrRoadIntersecting):
		return "roadIntersectsAnotherRoad"
	case errors.Is(err, state.ErrNotSameMetropole):
		return byRole(role, "connectingCityNotInSameMetropole", "airportNotInSameMetropole", "terminalNotInSameMetropole", "roadNotInOneMetropole")

	case errors.Is(err, state.ErrCityDoesNotExist):
		switch {
		case connecting:
			return "connectingCityDoesNotExist"
		case command == "mapCity" || command == "unmapCity":
			return "nameNotInDictionary"
		}
		return "cityDoesNotExist"
	case errors.Is(err, state.ErrCityNotMapped):
		if connecting {
			return "connectingCityNotMapped"
		}
		return "cityNotMapped"
	case errors.Is(err, state.ErrCityAlreadyMapped):
		return "cityAlreadyMapped"
	case errors.Is(err, state.ErrCityHasRoads):
		return "cityHasRoads"
	case errors.Is(err, state.ErrAirportDoesNotExist):
		return "airportDoesNotExist"
	case errors.Is(err, state.ErrTerminalDoesNotExist):
		return "terminalDoesNotExist"

	case errors.Is(err, state.ErrStartDoesNotExist):
		if command == "shortestPath" {
			return "nonExistentStart"
		}
		return "startPointDoesNotExist"
	case errors.Is(err, state.ErrEndDoesNotExist):
		if command == "shortestPath" {
			return "nonExistentEnd"
		}
		return "endPointDoesNotExist"
	case errors.Is(err, state.ErrStartEqualsEnd):
		return "startEqualsEnd"
	case errors.Is(err, state.ErrRoadAlreadyExists):
		return "roadAlreadyMapped"
	case errors.Is(err, state.ErrRoadNotMapped):
		if command == "nearestCityToRoad" {
			return "roadIsNotMapped"
		}
		return "roadNotMapped"
	case errors.Is(err, state.ErrNoPathExists):
		return "noPathExists"
	case errors.Is(err, state.ErrNoOtherCitiesMapped):
		return "noOtherCitiesMapped"
	case errors.Is(err, state.ErrDictionaryIsEmpty):
		return "emptyTree"

	case errors.Is(err, state.ErrMetropoleOutOfBounds):
		return "metropoleOutOfBounds"
	case errors.Is(err, state.ErrMetropoleIsEmpty):
		if command == "printPRQuadtree" {
			return "mapIsEmpty"
		}
		return "metropoleIsEmpty"
	case errors.Is(err, state.ErrNoCitiesToList):
		return "noCitiesToList"
	case errors.Is(err, state.ErrNoCitiesExistInRange):
		return "noCitiesExistInRange"
	case errors.Is(err, state.ErrNoRoadsExistInRange):
		return "noRoadsExistInRange"
	case errors.Is(err, state.ErrCityNotFound):
		return "cityNotFound"
	case errors.Is(err, state.ErrRoadNotFound):
		return "roadNotFound"

	default:
		return "undefinedError"
	}
}

func byRole(role state.Role, city, airport, terminal, road string) string {
	switch role {
	case state.RoleAirport:
		return airport
	case state.RoleTerminal:
		return terminal
	case state.RoleRoad:
		return road
	default:
		return city
	}
}
