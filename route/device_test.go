package route

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOutputRoute(t *testing.T) {
	tests := []struct {
		device AudioDevice
		mode   Mode
		want   Route
	}{
		{DeviceOutEarpiece, ModeNormal, EarpieceNormal},
		{DeviceOutSpeaker, ModeNormal, SpeakerNormal},
		{DeviceOutSpeaker, ModeRingtone, SpeakerRingtone},
		{DeviceOutWiredHeadphone, ModeNormal, HeadphoneNormal},
		{DeviceOutWiredHeadset, ModeRingtone, HeadsetRingtone},
		{DeviceOutSpeaker | DeviceOutWiredHeadset, ModeNormal, SpeakerHeadphoneNormal},
		{DeviceOutSpeaker | DeviceOutWiredHeadphone, ModeRingtone, SpeakerHeadphoneRingtone},
		{DeviceOutBluetoothSCOCar, ModeNormal, BluetoothNormal},
		{DeviceOutAuxDigital, ModeNormal, HDMINormal},
		{DeviceOutDigitalDockHeadset, ModeNormal, USBNormal},
		{DeviceOutSpeaker | DeviceOutAuxDigital, ModeNormal, PlaybackOff},
		{DeviceOutSpeaker, ModeInCall, PlaybackOff},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, OutputRoute(tt.device, tt.mode), "%#x %s", uint32(tt.device), tt.mode)
	}
}

func TestVoiceRoute(t *testing.T) {
	tests := []struct {
		device AudioDevice
		mode   Mode
		want   Route
	}{
		{DeviceOutBluetoothSCOHead | DeviceOutSpeaker, ModeInCall, BluetoothIncall},
		{DeviceOutBluetoothSCO, ModeInCommunication, BluetoothVoip},
		{DeviceOutWiredHeadphone, ModeInCall, HeadphoneIncall},
		{DeviceOutWiredHeadset, ModeInCommunication, HeadsetVoip},
		{DeviceOutAnalogDockHeadset, ModeInCall, EarpieceIncall},
		{DeviceOutAnalogDockHeadset, ModeInCommunication, USBNormal},
		{DeviceOutAuxDigital, ModeInCommunication, HDMINormal},
		{DeviceOutEarpiece, ModeInCall, EarpieceIncall},
		{DeviceOutEarpiece, ModeInCommunication, EarpieceVoip},
		{DeviceOutSpeaker, ModeInCall, SpeakerIncall},
		{DeviceOutSpeaker, ModeInCommunication, SpeakerVoip},
		{0, ModeInCall, IncallOff},
		{0, ModeInCommunication, VoipOff},
		{DeviceOutSpeaker, ModeNormal, IncallOff},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, VoiceRoute(tt.device, tt.mode), "%#x %s", uint32(tt.device), tt.mode)
	}
}

func TestInputRoute(t *testing.T) {
	assert.Equal(t, MainMicCapture, InputRoute(DeviceInBuiltinMic, false))
	assert.Equal(t, HandsFreeMicCapture, InputRoute(DeviceInWiredHeadset, false))
	assert.Equal(t, BluetoothSCOMicCapture, InputRoute(DeviceInBluetoothSCOHeadset, false))
	assert.Equal(t, USBCapture, InputRoute(DeviceInAnalogDockHeadset, false))
	assert.Equal(t, CaptureOff, InputRoute(DeviceInBackMic, false))
	assert.Equal(t, CaptureOff, InputRoute(DeviceInBuiltinMic, true))
}

func TestDeviceRoute(t *testing.T) {
	assert.Equal(t, MainMicCapture, DeviceRoute(DeviceInBuiltinMic, ModeInCall, false))
	assert.Equal(t, SpeakerIncall, DeviceRoute(DeviceOutSpeaker, ModeInCall, false))
	assert.Equal(t, SpeakerRingtone, DeviceRoute(DeviceOutSpeaker, ModeRingtone, false))
}
