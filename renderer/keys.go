package renderer

const (
	apertureStep       float32 = 0.01
	distanceOffsetStep float32 = 0.1
)

// Handle a key press. The depth of field keys adjust the aperture radius
// (z/x) and the focal distance offset (,/.) and restart accumulation; the
// values are not clamped. Space toggles the simulation and r resets the
// dynamic objects.
func (r *frameRenderer) KeyPressed(key byte) bool {
	switch key {
	case 'z':
		r.params.ApertureRadius += apertureStep
		r.logger.Noticef("aperture radius: %.2f", r.params.ApertureRadius)
		r.cameraChanged = true
	case 'x':
		r.params.ApertureRadius -= apertureStep
		r.logger.Noticef("aperture radius: %.2f", r.params.ApertureRadius)
		r.cameraChanged = true
	case ',':
		r.params.DistanceOffset -= distanceOffsetStep
		r.logger.Noticef("distance offset: %.2f", r.params.DistanceOffset)
		r.cameraChanged = true
	case '.':
		r.params.DistanceOffset += distanceOffsetStep
		r.logger.Noticef("distance offset: %.2f", r.params.DistanceOffset)
		r.cameraChanged = true
	case ' ':
		r.SetSimulationEnabled(!r.simulationEnabled)
	case 'r':
		r.ResetObjects()
	default:
		return false
	}
	return true
}
