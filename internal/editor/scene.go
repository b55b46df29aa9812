package editor

// SceneObject is one 3D model placed by the program.
type SceneObject struct {
	Model   string `json:"model"`
	BlockID string `json:"block_id,omitempty"`
}

// SceneRun is one "run AR application" block and the models it contains.
type SceneRun struct {
	BlockID string        `json:"block_id,omitempty"`
	Objects []SceneObject `json:"objects"`
}

// Scene is the compiled form of a workspace handed to the AR viewer.
type Scene struct {
	Runs []SceneRun `json:"runs"`
}

// ObjectCount returns the number of models across all runs
func (s *Scene) ObjectCount() int {
	n := 0
	for _, run := range s.Runs {
		n += len(run.Objects)
	}
	return n
}

// CompileScene walks every top-level run block and collects the models in
// its statement chain, in order. Models outside a run block, blocks of other
// types and dropdown values the catalog does not offer are skipped.
func CompileScene(workspaceXML string, catalog *Catalog) (*Scene, error) {
	ws, err := parseWorkspace(workspaceXML)
	if err != nil {
		return nil, err
	}

	scene := &Scene{Runs: []SceneRun{}}
	for i := range ws.Blocks {
		root := &ws.Blocks[i]
		if root.Type != BlockTypeRun {
			continue
		}

		run := SceneRun{BlockID: root.ID, Objects: []SceneObject{}}
		for b := root.statement(RunStatementInput); b != nil; b = b.next() {
			if b.Type != BlockTypeModel {
				continue
			}
			model := b.field(ModelField)
			if !catalog.IsModelValue(model) {
				continue
			}
			run.Objects = append(run.Objects, SceneObject{Model: model, BlockID: b.ID})
		}
		scene.Runs = append(scene.Runs, run)
	}

	return scene, nil
}

func (b *xmlBlock) next() *xmlBlock {
	if b.Next == nil {
		return nil
	}
	return b.Next.Block
}
