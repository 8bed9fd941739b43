// Package main provides a microphone mute plugin. On macOS it sets the input
// volume through AppleScript, on Linux it mutes the default PulseAudio or
// PipeWire source through pactl, and on Windows it mutes the default capture
// endpoint through the Core Audio endpoint volume API.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/ayusman/mudra/internal/plugin"
)

// defaultInputVolume is restored on unmute when no volume is given.
const defaultInputVolume = 75

// endpointMuteScript calls IAudioEndpointVolume::SetMute on the default
// capture endpoint (eCapture, eCommunications). %s is $true or $false.
const endpointMuteScript = `Add-Type -TypeDefinition @'
using System;
using System.Runtime.InteropServices;
[Guid("5CDF2C82-841E-4546-9722-0CF74078229A"), InterfaceType(ComInterfaceType.InterfaceIsIUnknown)]
interface IAudioEndpointVolume {
  int f(); int g(); int h(); int i(); int j(); int k(); int l(); int m(); int n(); int o(); int p();
  int SetMute([MarshalAs(UnmanagedType.Bool)] bool bMute, ref Guid pguidEventContext);
}
[Guid("D666063F-1587-4E43-81F1-B948E807363F"), InterfaceType(ComInterfaceType.InterfaceIsIUnknown)]
interface IMMDevice {
  int Activate(ref Guid id, int clsCtx, IntPtr activationParams, out IAudioEndpointVolume aev);
}
[Guid("A95664D2-9614-4F35-A746-DE8DB63617E6"), InterfaceType(ComInterfaceType.InterfaceIsIUnknown)]
interface IMMDeviceEnumerator {
  int f();
  int GetDefaultAudioEndpoint(int dataFlow, int role, out IMMDevice endpoint);
}
[ComImport, Guid("BCDE0395-E52F-467C-8E3D-C4579291692E")] class MMDeviceEnumerator { }
public static class Mic {
  public static void SetMute(bool mute) {
    var enumerator = (IMMDeviceEnumerator)new MMDeviceEnumerator();
    IMMDevice dev;
    Marshal.ThrowExceptionForHR(enumerator.GetDefaultAudioEndpoint(1, 2, out dev));
    var iid = typeof(IAudioEndpointVolume).GUID;
    IAudioEndpointVolume vol;
    Marshal.ThrowExceptionForHR(dev.Activate(ref iid, 23, IntPtr.Zero, out vol));
    var ctx = Guid.Empty;
    Marshal.ThrowExceptionForHR(vol.SetMute(mute, ref ctx));
  }
}
'@
[Mic]::SetMute(%s)`

type params struct {
	Volume *int `json:"volume"`
}

// runner executes a command and returns its combined output.
type runner func(name string, args ...string) ([]byte, error)

func execRunner(name string, args ...string) ([]byte, error) {
	return exec.Command(name, args...).CombinedOutput()
}

func main() {
	var req plugin.Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(plugin.Response{Error: fmt.Sprintf("failed to decode request: %v", err)})
		return
	}
	writeResponse(handle(req, runtime.GOOS, execRunner))
}

func writeResponse(resp plugin.Response) {
	json.NewEncoder(os.Stdout).Encode(resp)
}

// handle performs req on goos using run.
func handle(req plugin.Request, goos string, run runner) plugin.Response {
	var mute bool
	switch req.Action {
	case "mic-mute":
		mute = true
	case "mic-unmute":
	default:
		return plugin.Response{Error: fmt.Sprintf("unknown action: %s", req.Action), Code: plugin.CodeUnsupported}
	}

	var p params
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return plugin.Response{Error: fmt.Sprintf("invalid params: %v", err)}
		}
	}

	var (
		out []byte
		err error
	)
	switch goos {
	case "darwin":
		volume := defaultInputVolume
		if p.Volume != nil {
			volume = max(0, min(*p.Volume, 100))
		}
		if mute {
			volume = 0
		}
		out, err = run("osascript", "-e", fmt.Sprintf("set volume input volume %d", volume))
	case "linux":
		flag := "0"
		if mute {
			flag = "1"
		}
		out, err = run("pactl", "set-source-mute", "@DEFAULT_SOURCE@", flag)
	case "windows":
		flag := "$false"
		if mute {
			flag = "$true"
		}
		out, err = run("powershell", "-NoProfile", "-NonInteractive", "-Command", fmt.Sprintf(endpointMuteScript, flag))
	default:
		return plugin.Response{Error: "microphone control is not supported on " + goos, Code: plugin.CodeUnsupported}
	}

	if err != nil {
		return plugin.Response{Error: fmt.Sprintf("%s failed: %v: %s", req.Action, err, strings.TrimSpace(string(out))), Code: errorCode(out)}
	}
	return plugin.Response{Success: true}
}

func errorCode(out []byte) string {
	msg := strings.ToLower(string(out))
	switch {
	case strings.Contains(msg, "not authorized"), strings.Contains(msg, "not allowed"),
		strings.Contains(msg, "permission denied"), strings.Contains(msg, "access denied"),
		strings.Contains(msg, "access is denied"):
		return plugin.CodePermissionDenied
	default:
		return plugin.CodeDeviceUnavailable
	}
}
