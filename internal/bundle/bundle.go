// -----------------------------------------------------------------------
// Last Modified: Thursday, 30th July 2026 9:12:00 am
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

// Package bundle assembles the debug-bundle ZIP streamed by
// GET /jobs/{id}/debug-bundle: a job's config, event log, and filtered
// service logs at deterministic paths, redacted on assembly even though
// the sources were already redacted when written.
package bundle

import (
	"archive/zip"
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/ternarybob/loraforge/internal/common"
	"github.com/ternarybob/loraforge/internal/models"
	"github.com/ternarybob/loraforge/internal/redact"
)

// Assembler builds debug bundles from a job's on-disk state.
type Assembler struct {
	volumeRoot string
	logDir     string
	config     *common.Config
}

// New constructs an Assembler rooted at the configured volume/log directories.
func New(config *common.Config) *Assembler {
	return &Assembler{
		volumeRoot: config.Processing.VolumeRoot,
		logDir:     config.Logging.LogDir,
		config:     config,
	}
}

func (a *Assembler) jobDir(jobID string) string {
	return filepath.Join(a.volumeRoot, "logs", "jobs", jobID)
}

// Write streams a ZIP for job to w. Every entry is deterministic given the
// same on-disk state: two bundles of the same terminal job are byte-identical.
func (a *Assembler) Write(w io.Writer, job *models.Job) error {
	zw := zip.NewWriter(w)
	defer zw.Close()

	prefix := job.ID + "/"

	if err := a.writeReadme(zw, prefix, job); err != nil {
		return err
	}
	if err := a.writeMetadata(zw, prefix, job); err != nil {
		return err
	}
	if err := a.writeEvents(zw, prefix, job); err != nil {
		return err
	}
	if err := a.writeEnvironment(zw, prefix, job); err != nil {
		return err
	}
	if err := a.writeServiceLog(zw, prefix, "api", job.CorrelationID); err != nil {
		return err
	}
	if err := a.writeServiceLog(zw, prefix, "worker", job.CorrelationID); err != nil {
		return err
	}
	if err := a.writeSamples(zw, prefix, job); err != nil {
		return err
	}

	return nil
}

func writeFile(zw *zip.Writer, name string, data []byte) error {
	f, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("bundle: create %s: %w", name, err)
	}
	_, err = f.Write(data)
	return err
}

func (a *Assembler) writeReadme(zw *zip.Writer, prefix string, job *models.Job) error {
	readme := fmt.Sprintf(
		"Debug bundle for job %s (type=%s, status=%s)\n\n"+
			"metadata.json      - stored job config, redacted\n"+
			"events.jsonl       - full event log, redacted\n"+
			"environment.json   - non-sensitive environment snapshot\n"+
			"service_logs/      - last %d lines of api.log/worker.log filtered to this job's correlation id\n"+
			"samples/           - every file under this job's sample directory\n",
		job.ID, job.Type, job.Status, a.config.Bundle.ServiceLogLines,
	)
	return writeFile(zw, prefix+"README.txt", []byte(readme))
}

func (a *Assembler) writeMetadata(zw *zip.Writer, prefix string, job *models.Job) error {
	redacted := redact.Value(map[string]interface{}{
		"job_id":         job.ID,
		"type":           job.Type,
		"status":         job.Status,
		"config":         job.Config,
		"correlation_id": job.CorrelationID,
		"created_at":     job.CreatedAt,
		"retry_count":    job.RetryCount,
	})

	data, err := json.MarshalIndent(redacted, "", "  ")
	if err != nil {
		return fmt.Errorf("bundle: marshal metadata: %w", err)
	}
	return writeFile(zw, prefix+"metadata.json", data)
}

func (a *Assembler) writeEvents(zw *zip.Writer, prefix string, job *models.Job) error {
	path := filepath.Join(a.jobDir(job.ID), "events.jsonl")
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return writeFile(zw, prefix+"events.jsonl", nil)
		}
		return fmt.Errorf("bundle: read events: %w", err)
	}

	var out bytes.Buffer
	scanner := bufio.NewScanner(bytes.NewReader(raw))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry map[string]interface{}
		if err := json.Unmarshal(line, &entry); err != nil {
			continue
		}
		redacted := redact.Value(entry)
		reEncoded, err := json.Marshal(redacted)
		if err != nil {
			continue
		}
		out.Write(reEncoded)
		out.WriteByte('\n')
	}

	return writeFile(zw, prefix+"events.jsonl", out.Bytes())
}

func (a *Assembler) writeEnvironment(zw *zip.Writer, prefix string, job *models.Job) error {
	env := map[string]interface{}{
		"mode":         a.config.Processing.Mode,
		"fast_test":    a.config.Processing.IsFastTest(),
		"queue_prefix": a.config.Queue.QueueNamePrefix,
		"job_type":     job.Type,
	}

	data, err := json.MarshalIndent(redact.Value(env), "", "  ")
	if err != nil {
		return fmt.Errorf("bundle: marshal environment: %w", err)
	}
	return writeFile(zw, prefix+"environment.json", data)
}

// writeServiceLog copies the last config.Bundle.ServiceLogLines lines of
// {logDir}/{service}/latest/{service}.log that carry correlationID,
// redacted a second time.
func (a *Assembler) writeServiceLog(zw *zip.Writer, prefix string, service string, correlationID string) error {
	path := filepath.Join(a.logDir, service, "latest", service+".log")

	lines, err := tailMatching(path, correlationID, a.config.Bundle.ServiceLogLines)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("bundle: read %s log: %w", service, err)
	}

	redactedLines := make([]string, len(lines))
	for i, line := range lines {
		redactedLines[i] = redact.String(line)
	}

	return writeFile(zw, prefix+"service_logs/"+service+".log", []byte(strings.Join(redactedLines, "\n")))
}

// tailMatching reads path and returns up to limit of the lines containing
// needle, preserving file order. A missing file returns the os.Open error,
// which writeServiceLog treats as an empty log.
func tailMatching(path, needle string, limit int) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var matched []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if needle == "" || strings.Contains(line, needle) {
			matched = append(matched, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if limit > 0 && len(matched) > limit {
		matched = matched[len(matched)-limit:]
	}
	return matched, nil
}

func (a *Assembler) writeSamples(zw *zip.Writer, prefix string, job *models.Job) error {
	samplesDir := filepath.Join(a.jobDir(job.ID), "samples")
	entries, err := os.ReadDir(samplesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("bundle: read samples dir: %w", err)
	}

	// Deterministic archive order.
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(samplesDir, name))
		if err != nil {
			return fmt.Errorf("bundle: read sample %s: %w", name, err)
		}
		if err := writeFile(zw, prefix+"samples/"+name, data); err != nil {
			return err
		}
	}
	return nil
}

// StepFromSampleName extracts the zero-padded step number from a
// "step_{NNNNN}.{ext}" filename, returning (step, true) on match.
func StepFromSampleName(name string) (int, bool) {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	const prefix = "step_"
	if !strings.HasPrefix(base, prefix) {
		return 0, false
	}
	digits := strings.TrimPrefix(base, prefix)
	step, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return step, true
}
