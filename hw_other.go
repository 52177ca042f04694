//go:build !linux || !(amd64 || arm64 || 386 || arm)

package alsaroute

import (
	"runtime"

	"github.com/pkg/errors"
)

func openHW(card int) (Device, error) {
	return nil, errors.Errorf("alsa control devices are not supported on %s/%s", runtime.GOOS, runtime.GOARCH)
}
