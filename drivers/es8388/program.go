package es8388

// Phase groups program entries by purpose. Used for reporting only; the
// program order is what the chip sees.
type Phase uint8

const (
	PhaseNone Phase = iota
	PhaseMuting
	PhasePoweringOutputs
	PhaseConfiguringFormat
	PhaseConfiguringMixer
	PhaseConfiguringClockSharing
	PhaseSettingVolumes
	PhaseConfiguringInput
	PhasePoweringUpFinal
	PhaseTeardown
)

func (p Phase) String() string {
	switch p {
	case PhaseMuting:
		return "muting"
	case PhasePoweringOutputs:
		return "powering_outputs"
	case PhaseConfiguringFormat:
		return "configuring_format"
	case PhaseConfiguringMixer:
		return "configuring_mixer"
	case PhaseConfiguringClockSharing:
		return "configuring_clock_sharing"
	case PhaseSettingVolumes:
		return "setting_volumes"
	case PhaseConfiguringInput:
		return "configuring_input"
	case PhasePoweringUpFinal:
		return "powering_up_final"
	case PhaseTeardown:
		return "teardown"
	default:
		return "none"
	}
}

// Write is one register assignment.
type Write struct {
	Phase Phase
	Reg   byte
	Value byte
}

// program is the wire-level bring-up sequence. Entries are written strictly
// in this order; do not sort or deduplicate.
var program = [...]Write{
	// Mute DAC during setup, power up all blocks, slave mode.
	{PhaseMuting, regDACControl3, dacMute},
	{PhaseMuting, regControl2, 0x50},
	{PhaseMuting, regChipPower, 0x00},
	{PhaseMuting, regMasterMode, 0x00},

	// DAC power, LOUT1/2 + ROUT1/2 enabled; ADC Fs = DAC Fs.
	{PhasePoweringOutputs, regDACPower, 0x3E},
	{PhasePoweringOutputs, regControl1, 0x12},

	// 16-bit I²S; MCLK/Fs = 256.
	{PhaseConfiguringFormat, regDACControl1, 0x18},
	{PhaseConfiguringFormat, regDACControl2, 0x02},

	// DAC to output mixer; ADC mix to output.
	{PhaseConfiguringMixer, regDACControl16, 0x1B},
	{PhaseConfiguringMixer, regDACControl17, 0x90},
	{PhaseConfiguringMixer, regDACControl20, 0x90},

	// DAC and ADC share LRCK, MCLK input enabled; output resistance.
	{PhaseConfiguringClockSharing, regDACControl21, 0x80},
	{PhaseConfiguringClockSharing, regDACControl23, 0x00},

	// DAC digital volume 0 dB.
	{PhaseSettingVolumes, regDACControl5, 0x00},
	{PhaseSettingVolumes, regDACControl4, 0x00},

	// ADC powered down while configuring; PGA +24 dB.
	{PhaseConfiguringInput, regADCPower, 0xFF},
	{PhaseConfiguringInput, regADCControl1, 0x88},
	// LINPUT2/RINPUT2, stereo, 16-bit right-justified, MCLK/Fs = 256.
	{PhaseConfiguringInput, regADCControl2, 0xF0},
	{PhaseConfiguringInput, regADCControl3, 0x80},
	{PhaseConfiguringInput, regADCControl4, 0x0E},
	{PhaseConfiguringInput, regADCControl5, 0x02},
	{PhaseConfiguringInput, regADCControl8, 0x20},
	{PhaseConfiguringInput, regADCControl9, 0x20},

	// LOUT1/ROUT1 and LOUT2/ROUT2 at 0 dB.
	{PhaseSettingVolumes, regDACControl24, 0x1E},
	{PhaseSettingVolumes, regDACControl25, 0x1E},
	{PhaseSettingVolumes, regDACControl26, 0x1E},
	{PhaseSettingVolumes, regDACControl27, 0x1E},

	// Power up DAC, unmute, power up ADC (no mic bias).
	{PhasePoweringUpFinal, regDACPower, 0x3C},
	{PhasePoweringUpFinal, regDACControl3, dacUnmute},
	{PhasePoweringUpFinal, regADCPower, 0x00},
}

// Program returns a copy of the bring-up sequence.
func Program() []Write {
	out := make([]Write, len(program))
	copy(out, program[:])
	return out
}

// MuteWrite is the register write issued on teardown.
func MuteWrite() Write {
	return Write{Phase: PhaseTeardown, Reg: regDACControl3, Value: dacMute}
}
