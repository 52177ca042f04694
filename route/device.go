package route

// AudioDevice is a bitmask of audio endpoints as used by the platform audio
// service
type AudioDevice uint32

const (
	DeviceOutEarpiece           AudioDevice = 0x1
	DeviceOutSpeaker            AudioDevice = 0x2
	DeviceOutWiredHeadset       AudioDevice = 0x4
	DeviceOutWiredHeadphone     AudioDevice = 0x8
	DeviceOutBluetoothSCO       AudioDevice = 0x10
	DeviceOutBluetoothSCOHead   AudioDevice = 0x20
	DeviceOutBluetoothSCOCar    AudioDevice = 0x40
	DeviceOutAuxDigital         AudioDevice = 0x400
	DeviceOutAnalogDockHeadset  AudioDevice = 0x800
	DeviceOutDigitalDockHeadset AudioDevice = 0x1000

	DeviceInCommunication       AudioDevice = 0x10000
	DeviceInAmbient             AudioDevice = 0x20000
	DeviceInBuiltinMic          AudioDevice = 0x40000
	DeviceInBluetoothSCOHeadset AudioDevice = 0x80000
	DeviceInWiredHeadset        AudioDevice = 0x100000
	DeviceInAuxDigital          AudioDevice = 0x200000
	DeviceInVoiceCall           AudioDevice = 0x400000
	DeviceInBackMic             AudioDevice = 0x800000
	DeviceInAnalogDockHeadset   AudioDevice = 0x1000000

	DeviceInAll = DeviceInCommunication | DeviceInAmbient | DeviceInBuiltinMic |
		DeviceInBluetoothSCOHeadset | DeviceInWiredHeadset | DeviceInAuxDigital |
		DeviceInVoiceCall | DeviceInBackMic | DeviceInAnalogDockHeadset

	deviceOutBluetoothSCOAll = DeviceOutBluetoothSCO | DeviceOutBluetoothSCOHead | DeviceOutBluetoothSCOCar
	deviceOutDockAll         = DeviceOutAnalogDockHeadset | DeviceOutDigitalDockHeadset
)

// Mode is the telephony mode of the audio service
type Mode int

const (
	ModeNormal Mode = iota
	ModeRingtone
	ModeInCall
	ModeInCommunication
)

func (m Mode) String() string {
	switch m {
	case ModeNormal:
		return "normal"
	case ModeRingtone:
		return "ringtone"
	case ModeInCall:
		return "in_call"
	case ModeInCommunication:
		return "in_communication"
	}
	return "unknown"
}

// OutputRoute picks the media playback route for an output device set
func OutputRoute(device AudioDevice, mode Mode) Route {
	if mode != ModeRingtone && mode != ModeNormal {
		return PlaybackOff
	}
	ringing := mode == ModeRingtone

	switch device {
	case DeviceOutEarpiece:
		return EarpieceNormal
	case DeviceOutSpeaker:
		return pick(ringing, SpeakerRingtone, SpeakerNormal)
	case DeviceOutWiredHeadphone:
		return pick(ringing, HeadphoneRingtone, HeadphoneNormal)
	case DeviceOutWiredHeadset:
		return pick(ringing, HeadsetRingtone, HeadsetNormal)
	case DeviceOutSpeaker | DeviceOutWiredHeadphone, DeviceOutSpeaker | DeviceOutWiredHeadset:
		return pick(ringing, SpeakerHeadphoneRingtone, SpeakerHeadphoneNormal)
	case DeviceOutBluetoothSCO, DeviceOutBluetoothSCOHead, DeviceOutBluetoothSCOCar:
		return BluetoothNormal
	case DeviceOutAuxDigital:
		return HDMINormal
	case DeviceOutAnalogDockHeadset, DeviceOutDigitalDockHeadset:
		return USBNormal
	}
	return PlaybackOff
}

// VoiceRoute picks the call or voip route for an output device set
func VoiceRoute(device AudioDevice, mode Mode) Route {
	if mode != ModeInCall && mode != ModeInCommunication {
		return IncallOff
	}
	call := mode == ModeInCall

	switch {
	case device&deviceOutBluetoothSCOAll != 0:
		return pick(call, BluetoothIncall, BluetoothVoip)
	case device&DeviceOutWiredHeadphone != 0:
		return pick(call, HeadphoneIncall, HeadphoneVoip)
	case device&DeviceOutWiredHeadset != 0:
		return pick(call, HeadsetIncall, HeadsetVoip)
	case device&deviceOutDockAll != 0:
		return pick(call, EarpieceIncall, USBNormal)
	case device&DeviceOutAuxDigital != 0:
		return pick(call, EarpieceIncall, HDMINormal)
	case device&DeviceOutEarpiece != 0:
		return pick(call, EarpieceIncall, EarpieceVoip)
	case device&DeviceOutSpeaker != 0:
		return pick(call, SpeakerIncall, SpeakerVoip)
	}
	return pick(call, IncallOff, VoipOff)
}

// InputRoute picks the capture route for an input device
func InputRoute(device AudioDevice, muted bool) Route {
	if muted {
		return CaptureOff
	}
	switch device {
	case DeviceInBuiltinMic:
		return MainMicCapture
	case DeviceInWiredHeadset:
		return HandsFreeMicCapture
	case DeviceInBluetoothSCOHeadset:
		return BluetoothSCOMicCapture
	case DeviceInAnalogDockHeadset:
		return USBCapture
	}
	return CaptureOff
}

// DeviceRoute picks the route for any device set in the given mode
func DeviceRoute(device AudioDevice, mode Mode, muted bool) Route {
	if device&DeviceInAll != 0 {
		return InputRoute(device, muted)
	}
	switch mode {
	case ModeInCall, ModeInCommunication:
		return VoiceRoute(device, mode)
	}
	return OutputRoute(device, mode)
}

func pick(cond bool, yes, no Route) Route {
	if cond {
		return yes
	}
	return no
}
