package provision

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/jbweber/vaultvm/api/v1alpha1"
	"github.com/jbweber/vaultvm/internal/shell"
)

// Remote paths and markers used by the browser-use install.
const (
	InstallScriptPath = "/tmp/install-browser-use.sh"
	InstallLogPath    = "/tmp/browser-use-install.log"
	InstallMarker     = "INSTALL_COMPLETE"
	AIEnvFile         = "~/.browser-use.env"

	installDelimiter = "SCRIPT_EOF"
	exampleDelimiter = "EXAMPLE_EOF"
	envDelimiter     = "ENV_EOF"
)

//go:embed scripts/*.tmpl
var scriptFS embed.FS

var scripts = template.Must(template.ParseFS(scriptFS, "scripts/*.tmpl"))

// InstallScript renders the background install script for spec.
func InstallScript(spec v1alpha1.BrowserUseSpec) (string, error) {
	return render("install-browser-use.sh.tmpl", map[string]string{
		"Venv":     spec.Venv,
		"Packages": strings.Join(spec.Packages, " "),
		"Marker":   InstallMarker,
	})
}

// ExampleScript renders the example agent script for spec.
func ExampleScript(spec v1alpha1.BrowserUseSpec) (string, error) {
	return render("browser-use-example.py.tmpl", map[string]string{
		"Venv":    spec.Venv,
		"Path":    spec.ExampleScript,
		"EnvFile": AIEnvFile,
	})
}

func render(name string, data map[string]string) (string, error) {
	var buf bytes.Buffer
	if err := scripts.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// Commands issued by the run.

var systemCommands = []string{
	"sudo apt-get update -qq",
	"sudo apt-get install -y -qq python3 python3-pip python3-venv git curl wget unzip",
	"sudo apt-get install -y -qq build-essential libssl-dev libffi-dev",
}

func gitCommands(g v1alpha1.GitSpec) []string {
	return []string{
		fmt.Sprintf(`git config --global user.name "%s"`, g.UserName),
		fmt.Sprintf(`git config --global user.email "%s"`, g.UserEmail),
		fmt.Sprintf("git config --global init.defaultBranch %s", g.DefaultBranch),
		"mkdir -p ~/.ssh && ssh-keyscan github.com >> ~/.ssh/known_hosts 2>/dev/null || true",
	}
}

func sshKeygenCommand(comment string) string {
	return fmt.Sprintf(`test -f ~/.ssh/id_ed25519 || ssh-keygen -t ed25519 -f ~/.ssh/id_ed25519 -N "" -C "%s"`, comment)
}

const sshPublicKeyCommand = "cat ~/.ssh/id_ed25519.pub"

func requirementsCheckCommand(path string) string {
	return fmt.Sprintf("test -f %s/requirements.txt && echo 'EXISTS' || echo 'NOT_FOUND'", path)
}

func requirementsInstallCommand(path string) string {
	return fmt.Sprintf("cd %s && pip3 install -r requirements.txt --break-system-packages", path)
}

func aiEnvCommand(key string) (string, error) {
	cmd, err := shell.Heredoc(AIEnvFile, envDelimiter, "ANTHROPIC_API_KEY="+key)
	if err != nil {
		return "", err
	}
	return "umask 077 && " + cmd, nil
}

var (
	launchInstallCommand = fmt.Sprintf("nohup %s > %s 2>&1 &", InstallScriptPath, InstallLogPath)
	pollInstallCommand   = fmt.Sprintf(`grep -q "%s" %s 2>/dev/null && echo "DONE" || echo "PENDING"`, InstallMarker, InstallLogPath)
	tailInstallCommand   = "tail -20 " + InstallLogPath
)

func verifyCommand(venv string) string {
	return fmt.Sprintf(`%s/bin/python -c "import browser_use; print('Verified')"`, venv)
}

func langchainCommand(venv string) string {
	return venv + "/bin/pip install langchain-anthropic"
}
