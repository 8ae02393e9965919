package schema

// Kind identifies one message kind in the catalogue. It is the closed
// tagged variant spec.md §9 asks for in place of the source's
// compile-time template dispatch: a data-driven catalogue builds the
// 256-slot header table once at package init time, and handlers switch
// on Kind.
type Kind int

const (
	// KindParseError is the synthesised event kind covering a run of
	// bytes the scanner could not frame (spec.md §3).
	KindParseError Kind = iota
	KindTimestamp
	KindGPSPosition
	KindAccelerations
	KindGPSRawSpeed
	KindGPSTimeStorage
	KindDateStorage
	KindHighResTimer
	KindIgnitionStatus
	KindBatteryVoltage
	KindOdometer
	KindAnalogue
	KindExternalFrequency
	KindExternalAuxiliary
	KindExternalTemperature
	KindExternalMisc
	KindDiagnosticTrace
)

func (k Kind) String() string {
	switch k {
	case KindParseError:
		return "parse_error"
	case KindTimestamp:
		return "timestamp"
	case KindGPSPosition:
		return "gps_position"
	case KindAccelerations:
		return "accelerations"
	case KindGPSRawSpeed:
		return "gps_raw_speed"
	case KindGPSTimeStorage:
		return "gps_time_storage"
	case KindDateStorage:
		return "date_storage"
	case KindHighResTimer:
		return "high_res_timer"
	case KindIgnitionStatus:
		return "ignition_status"
	case KindBatteryVoltage:
		return "battery_voltage"
	case KindOdometer:
		return "odometer"
	case KindAnalogue:
		return "analogue"
	case KindExternalFrequency:
		return "external_frequency"
	case KindExternalAuxiliary:
		return "external_auxiliary"
	case KindExternalTemperature:
		return "external_temperature"
	case KindExternalMisc:
		return "external_misc"
	case KindDiagnosticTrace:
		return "diagnostic_trace"
	default:
		return "unknown"
	}
}
