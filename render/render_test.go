package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"github.com/ViceAguilera/go-epptrack/postprocess"
	"github.com/ViceAguilera/go-epptrack/tracker"
)

func TestLabelColor(t *testing.T) {
	assert.Equal(t, PersonColor, LabelColor(postprocess.Person))
	assert.Equal(t, CompliantColor, LabelColor(postprocess.Helmet))
	assert.Equal(t, ViolationColor, LabelColor(postprocess.NoVest))
}

func TestLabelText(t *testing.T) {

	obj := tracker.NewObject(tracker.NewRect(0, 0, 10, 10), postprocess.NoHelmet, 0.851, 1)
	assert.Equal(t, "no-helmet 0.85", LabelText(obj))

	obj.TrackID = 3
	assert.Equal(t, "ID3 no-helmet 0.85", LabelText(obj))
}

func TestPanelLineColor(t *testing.T) {
	assert.Equal(t, ViolationColor, panelLineColor("  no-helmet: 0.85"))
	assert.Equal(t, White, panelLineColor("Persona 0:"))
	assert.NotEqual(t, White, panelLineColor("  vest: no detectado"))
}

func TestReportPanelAppend(t *testing.T) {

	frame := gocv.NewMatWithSize(120, 160, gocv.MatTypeCV8UC3)
	defer frame.Close()

	persons := []tracker.Object{tracker.NewObject(tracker.NewRect(10, 10, 60, 100),
		postprocess.Person, 0.9, 1)}
	persons[0].TrackID = 0

	TrackedBoxes(&frame, persons, DefaultFont(), 2)

	trail := tracker.NewTrail(5)
	trail.Add(persons[0])
	persons[0].Rect = tracker.NewRect(20, 10, 70, 100)
	trail.Add(persons[0])
	Trail(&frame, persons, trail, DefaultTrailStyle())

	panel, err := ReportPanel([]string{"Detectadas: 1 persona(s)", "", "Persona 0:"}, 100, 120, true)
	require.NoError(t, err)
	defer panel.Close()

	assert.Equal(t, 100, panel.Cols())
	assert.Equal(t, 120, panel.Rows())

	out := gocv.NewMat()
	defer out.Close()

	require.NoError(t, AppendPanel(frame, panel, &out))
	assert.Equal(t, 260, out.Cols())

	short, err := ReportPanel(nil, 100, 50, false)
	require.NoError(t, err)
	defer short.Close()

	assert.Error(t, AppendPanel(frame, short, &out))

	_, err = ReportPanel(nil, 0, 10, false)
	assert.Error(t, err)
}
