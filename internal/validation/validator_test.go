package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evalgo.org/schemaeditor/models"
)

func validBox() *models.Box {
	return &models.Box{
		Name: "codec-fix",
		Kind: models.KindBox,
		Spec: models.BoxSpec{
			Type: "th2-codec",
			Pins: []models.Pin{
				{Name: "in", ConnectionType: models.ConnectionMQ},
				{Name: "out", ConnectionType: models.ConnectionGRPC},
			},
		},
	}
}

func fields(r *ValidationResult) []string {
	out := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		out = append(out, e.Field)
	}
	return out
}

func TestNew(t *testing.T) {
	v := New()
	assert.NotNil(t, v)
	assert.NotNil(t, v.structValidator)
}

func TestValidateBox_Valid(t *testing.T) {
	result := New().ValidateBox(validBox())
	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
	assert.NoError(t, result.Err())
}

func TestValidateBox_Nil(t *testing.T) {
	result := New().ValidateBox(nil)
	assert.False(t, result.Valid)
	assert.Equal(t, []string{"box"}, fields(result))
}

func TestValidateBox_BadName(t *testing.T) {
	box := validBox()
	box.Name = "Not A DNS Name!"

	result := New().ValidateBox(box)
	require.False(t, result.Valid)
	assert.Contains(t, fields(result), "name")
}

func TestValidateBox_WrongKind(t *testing.T) {
	box := validBox()
	box.Kind = models.KindDictionary

	result := New().ValidateBox(box)
	require.False(t, result.Valid)
	assert.Contains(t, fields(result), "kind")
}

func TestValidateBox_DuplicatePins(t *testing.T) {
	box := validBox()
	box.Spec.Pins = append(box.Spec.Pins, models.Pin{Name: "in", ConnectionType: models.ConnectionMQ})

	result := New().ValidateBox(box)
	require.False(t, result.Valid)
	assert.Contains(t, fields(result), "spec.pins")
}

func TestValidateBox_BadConnectionType(t *testing.T) {
	box := validBox()
	box.Spec.Pins[0].ConnectionType = "http"

	result := New().ValidateBox(box)
	require.False(t, result.Valid)
	assert.Contains(t, fields(result), "spec.pins[0].connection-type")

	err := result.Err()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestValidateBox_NodePortRange(t *testing.T) {
	box := validBox()
	port := 70000
	box.Spec.NodePort = &port

	result := New().ValidateBox(box)
	require.False(t, result.Valid)
	assert.Contains(t, fields(result), "spec.node-port")
}

func TestValidateDictionary(t *testing.T) {
	v := New()

	ok := v.ValidateDictionary(&models.Dictionary{Name: "fix-dict", Kind: models.KindDictionary})
	assert.True(t, ok.Valid)

	bad := v.ValidateDictionary(&models.Dictionary{Name: "fix-dict", Kind: models.KindBox})
	assert.False(t, bad.Valid)
	assert.Contains(t, fields(bad), "kind")

	missing := v.ValidateDictionary(&models.Dictionary{Kind: models.KindDictionary})
	assert.False(t, missing.Valid)
	assert.Contains(t, fields(missing), "name")
}

func TestValidateLink(t *testing.T) {
	v := New()

	link := models.ExtendedLink{
		Name: "l1",
		From: &models.ExtendedEndpoint{Box: "a", Pin: "out", ConnectionType: models.ConnectionMQ},
		To:   &models.ExtendedEndpoint{Box: "b", Pin: "in", ConnectionType: models.ConnectionMQ},
	}
	assert.True(t, v.ValidateLink(link).Valid)

	link.To = nil
	result := v.ValidateLink(link)
	assert.False(t, result.Valid)
	assert.Equal(t, []string{"to"}, fields(result))

	link.To = &models.ExtendedEndpoint{Box: "b", ConnectionType: "ws"}
	result = v.ValidateLink(link)
	assert.ElementsMatch(t, []string{"to.pin", "to.connectionType"}, fields(result))
}

func TestValidateResource(t *testing.T) {
	v := New()

	entity, result := v.ValidateResource([]byte(`{
		"kind": "Th2Box",
		"name": "conn-fix",
		"spec": {"pins": [{"name": "to_send", "connection-type": "mq"}]}
	}`))
	require.True(t, result.Valid, result.Errors)
	require.IsType(t, &models.Box{}, entity)
	assert.True(t, entity.(*models.Box).HasPin("to_send"))

	_, result = v.ValidateResource([]byte(`{not json`))
	assert.False(t, result.Valid)
	assert.Equal(t, []string{"document"}, fields(result))

	_, result = v.ValidateResource([]byte(`{"name": "x"}`))
	assert.Equal(t, []string{"kind"}, fields(result))

	entity, result = v.ValidateResource([]byte(`{"kind": "SettingsFile", "name": "settings", "spec": {"a": 1}}`))
	assert.True(t, result.Valid)
	assert.IsType(t, &models.GenericResource{}, entity)
}

func TestValidateEntity_LinkDefinition(t *testing.T) {
	def := models.NewLinkDefinition("links")
	def.Spec.BoxesRelation.RouterMQ = []models.Link{
		{Name: "ok", From: &models.LinkEndpoint{Box: "a", Pin: "p"}, To: &models.LinkEndpoint{Box: "b", Pin: "q"}},
		{Name: "half", From: &models.LinkEndpoint{Box: "a", Pin: "p"}},
	}

	result := New().ValidateEntity(def)
	require.False(t, result.Valid)
	assert.Equal(t, []string{"links[half].to"}, fields(result))
}
