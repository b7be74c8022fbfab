package alarms

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/alarmify/internal/codec"
	"github.com/oshokin/alarmify/internal/config"
	"github.com/oshokin/alarmify/internal/domain/alarm"
)

// Repository defines persistence operations for alarm definitions.
type Repository interface {
	Load(ctx context.Context) ([]alarm.Request, error)
	Save(ctx context.Context, defs []alarm.Definition) error
}

const (
	// formatVersion is written into every file.
	formatVersion = 1

	fieldVersion = "version"
	fieldSavedAt = "saved_at"
	fieldAlarms  = "alarms"
)

var (
	// ErrNotFound is returned when the state file does not exist yet.
	ErrNotFound = errors.New("state not found")
	// errUnsupportedVersion is returned for files written by a newer format.
	errUnsupportedVersion = errors.New("unsupported state file version")
)

// FileRepository persists alarm definitions to a JSON file on disk.
// JSON is produced and consumed via protobuf JSON (protojson) so the file
// holds the same shapes as the gRPC API.
type FileRepository struct {
	// path is the filesystem location of the JSON state file.
	path string
	// now stamps saved files.
	now func() time.Time
	// mu protects concurrent access to the state file.
	mu sync.Mutex
}

// NewFileRepository creates a repository that reads/writes JSON at the provided path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
		now:  time.Now,
	}
}

// Path returns the state file location.
func (r *FileRepository) Path() string {
	return r.path
}

// Load reads the stored alarm requests in their saved order. Validation is
// left to the caller, which re-adds them through the scheduler.
func (r *FileRepository) Load(_ context.Context) ([]alarm.Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("read state file: %w", err)
	}

	var doc structpb.Struct
	if err = protojson.Unmarshal(contents, &doc); err != nil {
		return nil, fmt.Errorf("decode state file: %w", err)
	}

	if v := doc.GetFields()[fieldVersion].GetNumberValue(); v > formatVersion {
		return nil, fmt.Errorf("%v: %w", v, errUnsupportedVersion)
	}

	items, err := codec.Structs(doc.GetFields()[fieldAlarms].GetListValue())
	if err != nil {
		return nil, fmt.Errorf("decode state file: %w", err)
	}

	requests := make([]alarm.Request, 0, len(items))

	for i, item := range items {
		req, err := codec.RequestFromStruct(item)
		if err != nil {
			return nil, fmt.Errorf("decode alarm %d: %w", i, err)
		}

		requests = append(requests, req)
	}

	return requests, nil
}

// Save writes the definitions to disk. The file is replaced atomically so
// watchers never observe a half-written file.
func (r *FileRepository) Save(_ context.Context, defs []alarm.Definition) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	items := make([]*structpb.Struct, 0, len(defs))

	for _, def := range defs {
		item, err := codec.RequestToStruct(def.Request())
		if err != nil {
			return fmt.Errorf("encode alarm %s: %w", def.ID, err)
		}

		items = append(items, item)
	}

	doc := &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldVersion: structpb.NewNumberValue(formatVersion),
		fieldSavedAt: structpb.NewStringValue(r.now().UTC().Format(time.RFC3339)),
		fieldAlarms:  structpb.NewListValue(codec.StructList(items)),
	}}

	marshalOptions := protojson.MarshalOptions{
		Multiline:       true,
		EmitUnpopulated: true,
	}

	data, err := marshalOptions.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(r.path), "."+filepath.Base(r.path)+".*")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}

	tmpPath := tmp.Name()

	_, err = tmp.Write(data)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}

	if err == nil {
		err = os.Chmod(tmpPath, config.DefaultFilePermissions)
	}

	if err == nil {
		err = os.Rename(tmpPath, r.path)
	}

	if err != nil {
		_ = os.Remove(tmpPath)

		return fmt.Errorf("write state file: %w", err)
	}

	return nil
}
