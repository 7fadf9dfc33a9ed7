package opener

import (
	"os/exec"
	"runtime"
)

// command comando do sistema para abrir target com o aplicativo padrão
func command(goos, target string) *exec.Cmd {
	switch goos {
	case "windows":
		// rundll32 funciona do Windows 7 ao 11
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", target)
	case "darwin":
		return exec.Command("open", target)
	}
	return exec.Command("xdg-open", target)
}

// Open abre um arquivo ou URL com o aplicativo padrão (planilha, navegador)
func Open(target string) error {
	return command(runtime.GOOS, target).Start()
}

// OpenWithFallback tenta alternativas quando o comando padrão falha
func OpenWithFallback(target string) error {
	err := Open(target)
	if err == nil {
		return nil
	}

	switch runtime.GOOS {
	case "windows":
		return exec.Command("explorer", target).Start()
	case "linux":
		for _, app := range []string{"gio", "libreoffice", "sensible-browser"} {
			args := []string{target}
			if app == "gio" {
				args = []string{"open", target}
			}
			if exec.Command(app, args...).Start() == nil {
				return nil
			}
		}
	}

	return err
}
