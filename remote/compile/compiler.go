// Package compile drives frmcmp_batch on the legacy host to compile form
// and library artifacts, verifying the produced binaries afterwards.
package compile

import (
	"context"
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/viant/changegate/oplog"
	"github.com/viant/changegate/remote"
)

// Artifact names reach a remote shell; anything beyond this set is refused
// outright rather than quoted.
var safeFileName = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// Compiler compiles .fmb forms and .pll libraries through a shell runner.
type Compiler struct {
	runner    remote.Runner
	user      string
	password  string
	timeoutMs int
}

var _ remote.Compiler = (*Compiler)(nil)

// New creates a Compiler. user/password are the compile credentials passed
// to frmcmp_batch; they never appear in operation logs.
func New(runner remote.Runner, user, password string, timeoutMs int) *Compiler {
	return &Compiler{runner: runner, user: user, password: password, timeoutMs: timeoutMs}
}

// Compile runs the compile command for the job's artifact and verifies the
// produced binary: forms are checked for a .fmx and moved to the target
// directory, libraries are checked for a .plx next to the source. On
// verification failure the companion .err file is read into the log.
func (c *Compiler) Compile(ctx context.Context, job *remote.CompileJob, log *oplog.Log) (bool, error) {
	fileName := job.FileName
	if !safeFileName.MatchString(fileName) {
		log.Errorf("invalid file name rejected: %s", fileName)
		return false, nil
	}

	var compileCmd string
	if job.Library {
		compileCmd = fmt.Sprintf("source ~/.bash_profile; cd %s && frmcmp_batch module=%s userid=%s/%s module_type=library compile_all=special",
			job.SourceDir, fileName, c.user, c.password)
	} else {
		compileCmd = fmt.Sprintf("source ~/.bash_profile; cd %s && frmcmp_batch module=%s userid=%s/%s batch=yes",
			job.SourceDir, fileName, c.user, c.password)
	}
	log.Infof("compiling %s", fileName)
	log.Infof("command: %s", strings.ReplaceAll(compileCmd, c.password, "*****"))

	output, _, err := c.runner.Run(ctx, compileCmd, c.timeoutMs)
	if err != nil {
		return false, fmt.Errorf("compile command failed for %s: %w", fileName, err)
	}
	if trimmed := strings.TrimSpace(output); trimmed != "" {
		log.Infof("output: %s", trimmed)
	}

	if job.Library {
		return c.verifyLibrary(ctx, job, log)
	}
	return c.verifyForm(ctx, job, log)
}

func (c *Compiler) verifyLibrary(ctx context.Context, job *remote.CompileJob, log *oplog.Log) (bool, error) {
	baseName := strings.TrimSuffix(job.FileName, path.Ext(job.FileName))
	plxName := baseName + ".plx"
	log.Infof("verifying artifact %s", plxName)

	checkCmd := fmt.Sprintf(`source ~/.bash_profile; if [ -f "%s/%s" ]; then echo "COMPILE_SUCCESS"; else echo "PLX_NOT_FOUND"; fi`,
		job.SourceDir, plxName)
	result, _, err := c.runner.Run(ctx, checkCmd, c.timeoutMs)
	if err != nil {
		return false, fmt.Errorf("verification failed for %s: %w", plxName, err)
	}
	if strings.Contains(result, "COMPILE_SUCCESS") {
		log.Successf("%s generated", plxName)
		return true, nil
	}
	log.Errorf("%s was not generated", plxName)
	c.readErrFile(ctx, job.SourceDir, baseName, log)
	return false, nil
}

func (c *Compiler) verifyForm(ctx context.Context, job *remote.CompileJob, log *oplog.Log) (bool, error) {
	baseName := strings.TrimSuffix(job.FileName, path.Ext(job.FileName))
	fmxName := baseName + ".fmx"
	log.Infof("verifying and moving artifact %s", fmxName)

	checkAndMove := fmt.Sprintf(`if [ -f "%s/%s" ]; then mv -f "%s/%s" "%s"; echo "MOVE_SUCCESS"; else echo "FMX_NOT_FOUND"; fi`,
		job.SourceDir, fmxName, job.SourceDir, fmxName, job.TargetDir)
	result, _, err := c.runner.Run(ctx, checkAndMove, c.timeoutMs)
	if err != nil {
		return false, fmt.Errorf("verification failed for %s: %w", fmxName, err)
	}
	if strings.Contains(result, "MOVE_SUCCESS") {
		log.Successf("%s generated and moved to %s", fmxName, job.TargetDir)
		return true, nil
	}
	log.Errorf("%s was not generated", fmxName)
	c.readErrFile(ctx, job.SourceDir, baseName, log)
	return false, nil
}

// readErrFile appends the compiler's .err companion file, if any.
func (c *Compiler) readErrFile(ctx context.Context, dir, baseName string, log *oplog.Log) {
	errFile := fmt.Sprintf("%s/%s.err", dir, baseName)
	log.Infof("reading error log %s.err", baseName)
	output, _, err := c.runner.Run(ctx, fmt.Sprintf(`if [ -f "%s" ]; then cat "%s"; fi`, errFile, errFile), c.timeoutMs)
	if err != nil {
		log.Warningf("could not read %s.err: %v", baseName, err)
		return
	}
	if trimmed := strings.TrimSpace(output); trimmed != "" {
		log.Warningf("%s", trimmed)
	}
}
