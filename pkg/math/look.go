package math

// LookRotation returns the orientation that points an object's forward axis
// (local -Z, the camera and light convention) from `from` toward `to`, with the
// object's local +Y leaning toward `up`.
//
// When the look direction is parallel to up, world +Y is used as the fallback up.
func LookRotation(from, to, up Vec3) Quat {
	forward := to.Sub(from).Normalize()
	if forward == (Vec3{}) {
		return QuatIdentity()
	}

	zAxis := forward.Neg()
	xAxis := up.Cross(zAxis)
	if xAxis.Length() < 1e-6 {
		xAxis = AxisY.Cross(zAxis)
		if xAxis.Length() < 1e-6 {
			xAxis = AxisX.Cross(zAxis)
		}
	}
	xAxis = xAxis.Normalize()
	yAxis := zAxis.Cross(xAxis)

	return QuatFromMat4(FromBasis(xAxis, yAxis, zAxis))
}

// Forward returns the world-space direction of local -Z under q.
func (q Quat) Forward() Vec3 {
	return q.Rotate(Vec3{Z: -1})
}

// Up returns the world-space direction of local +Y under q.
func (q Quat) Up() Vec3 {
	return q.Rotate(AxisY)
}
