package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"platformo/internal/i18n"
)

func testCatalog(t *testing.T, lang string) *Catalog {
	t.Helper()
	store, err := i18n.NewStore("en")
	require.NoError(t, err)
	table, err := store.Table(lang)
	require.NoError(t, err)
	return NewCatalog(table)
}

func TestCompileScene(t *testing.T) {
	workspace := `<xml xmlns="https://developers.google.com/blockly/xml">
  <block type="ar_run" id="run1" x="10" y="10">
    <statement name="BLOCKS">
      <block type="ar_3d_model" id="a"><field name="MODEL">CUBE</field>
        <next>
          <block type="ar_3d_model" id="b"><field name="MODEL">TORUS</field>
            <next>
              <block type="ar_3d_model" id="c"><field name="MODEL">CYLINDER</field></block>
            </next>
          </block>
        </next>
      </block>
    </statement>
  </block>
  <block type="ar_3d_model" id="orphan" x="300" y="10"><field name="MODEL">SPHERE</field></block>
  <block type="ar_run" id="run2" x="10" y="200"></block>
</xml>`

	scene, err := CompileScene(workspace, testCatalog(t, "en"))
	require.NoError(t, err)

	require.Len(t, scene.Runs, 2)
	assert.Equal(t, "run1", scene.Runs[0].BlockID)
	assert.Equal(t, []SceneObject{
		{Model: ModelCube, BlockID: "a"},
		{Model: ModelCylinder, BlockID: "c"},
	}, scene.Runs[0].Objects)
	assert.Empty(t, scene.Runs[1].Objects)
	assert.Equal(t, 2, scene.ObjectCount())
}

func TestCompileScene_EmptyAndMalformed(t *testing.T) {
	catalog := testCatalog(t, "en")

	scene, err := CompileScene(EmptyWorkspaceXML, catalog)
	require.NoError(t, err)
	assert.Equal(t, 0, scene.ObjectCount())

	_, err = CompileScene("<xml>", catalog)
	assert.ErrorIs(t, err, ErrMalformedContent)
}

func TestNewCatalog_PerLanguage(t *testing.T) {
	en := testCatalog(t, "en")
	ru := testCatalog(t, "ru")

	assert.Equal(t, "Run AR Application", en.Block(BlockTypeRun).Label)
	assert.Equal(t, "Запустить AR приложение", ru.Block(BlockTypeRun).Label)
	assert.Equal(t, "AR компоненты", ru.Toolbox[0].Name)

	// Values are language independent, labels are not
	enModel, ruModel := en.Block(BlockTypeModel), ru.Block(BlockTypeModel)
	assert.Equal(t, enModel.Fields[0].Options[1].Value, ruModel.Fields[0].Options[1].Value)
	assert.Equal(t, "Сфера", ruModel.Fields[0].Options[1].Label)

	// Catalogs are independent values
	en.Blocks[0].Label = "changed"
	assert.Equal(t, "Run AR Application", testCatalog(t, "en").Block(BlockTypeRun).Label)

	assert.True(t, ru.IsModelValue(ModelSphere))
	assert.False(t, ru.IsModelValue("Сфера"))
	assert.Nil(t, en.Block("unknown"))
}
