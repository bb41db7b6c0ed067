package importer

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Faultbox/sceneport/pkg/diag"
)

const minimalASE = `*3DSMAX_ASCIIEXPORT 200
*GEOMOBJECT {
	*NODE_NAME "tri"
	*MESH {
		*MESH_NUMVERTEX 3
		*MESH_NUMFACES 1
		*MESH_VERTEX_LIST {
			*MESH_VERTEX 0 0.0 0.0 0.0
			*MESH_VERTEX 1 1.0 0.0 0.0
			*MESH_VERTEX 2 0.0 1.0 0.0
		}
		*MESH_FACE_LIST {
			*MESH_FACE 0: A: 0 B: 1 C: 2
		}
	}
}
`

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		path string
		want Format
	}{
		{"model.ase", FormatASE},
		{"MODEL.ASE", FormatASE},
		{"old.ask", FormatASK},
		{"scene.gltf", FormatGLTF},
		{"scene.glb", FormatGLB},
		{"scene.obj", FormatUnknown},
		{"noext", FormatUnknown},
	}
	for _, tt := range tests {
		if got := DetectFormat(tt.path); got != tt.want {
			t.Errorf("DetectFormat(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestSniffFormat(t *testing.T) {
	tests := []struct {
		name string
		data string
		want Format
	}{
		{"glb magic", "glTF\x02\x00\x00\x00", FormatGLB},
		{"json document", "  {\"asset\":{}}", FormatGLTF},
		{"section keyword", "\n*3DSMAX_ASCIIEXPORT 200", FormatASE},
		{"garbage", "hello", FormatUnknown},
		{"empty", "", FormatUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sniffFormat([]byte(tt.data)); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestImportBytesASE(t *testing.T) {
	s, err := ImportBytes([]byte(minimalASE), FormatASE, Options{})
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if len(s.Meshes) != 1 {
		t.Fatalf("got %d meshes, want 1", len(s.Meshes))
	}
	if s.Meshes[0].Name != "tri" || len(s.Meshes[0].Faces) != 1 {
		t.Errorf("mesh = %+v", s.Meshes[0])
	}
	if s.Incomplete {
		t.Error("scene with a mesh must not be incomplete")
	}
	if s.RootNode == nil || s.RootNode.Name != "tri" {
		t.Errorf("root = %+v", s.RootNode)
	}
}

func TestImportBytesSniffsWithoutFormat(t *testing.T) {
	s, err := ImportBytes([]byte(minimalASE), FormatUnknown, Options{})
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if len(s.Meshes) != 1 {
		t.Errorf("got %d meshes", len(s.Meshes))
	}
}

func TestImportBytesUnknownFormat(t *testing.T) {
	_, err := ImportBytes([]byte("not a scene"), FormatUnknown, Options{})
	if !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("err = %v, want ErrUnknownFormat", err)
	}
}

func TestImportBytesSizeLimit(t *testing.T) {
	_, err := ImportBytes([]byte(minimalASE), FormatASE, Options{MaxFileSize: 8})
	if !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("err = %v, want ErrFileTooLarge", err)
	}
}

func TestImportBytesFatalReturnsNoScene(t *testing.T) {
	// nested section cut off mid-stream
	truncated := "*GEOMOBJECT {\n\t*NODE_NAME \"x\"\n\t*MESH {\n\t\t*MESH_NUMVERTEX 3\n"
	s, err := ImportBytes([]byte(truncated), FormatASE, Options{})
	if s != nil {
		t.Error("fatal import must not return a partial scene")
	}
	var fatal *diag.FatalError
	if !errors.As(err, &fatal) {
		t.Fatalf("err = %v, want *diag.FatalError", err)
	}
	if fatal.Line == 0 {
		t.Error("fatal error carries no line number")
	}
}

func TestImportFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model.ase")
	if err := os.WriteFile(path, []byte(minimalASE), 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	s, err := Import(path, Options{})
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if len(s.Meshes) != 1 {
		t.Errorf("got %d meshes", len(s.Meshes))
	}
}

func TestImportFileSizeLimit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model.ase")
	if err := os.WriteFile(path, []byte(minimalASE), 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	_, err := Import(path, Options{MaxFileSize: 16})
	if !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("err = %v, want ErrFileTooLarge", err)
	}
}

func TestImportMissingFile(t *testing.T) {
	_, err := Import(filepath.Join(t.TempDir(), "absent.ase"), Options{})
	if err == nil {
		t.Error("expected error for a missing file")
	}
}

func TestFreshStatePerCall(t *testing.T) {
	for i := 0; i < 2; i++ {
		s, err := ImportBytes([]byte(minimalASE), FormatASE, Options{})
		if err != nil {
			t.Fatalf("call %d failed: %v", i, err)
		}
		if len(s.Meshes) != 1 || len(s.Materials) != 1 {
			t.Errorf("call %d: %d meshes, %d materials", i, len(s.Meshes), len(s.Materials))
		}
	}
}
