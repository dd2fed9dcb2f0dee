// Package components holds ready-made scene components: camera motion for a single view
// and global frame bookkeeping.
package components

// CameraMotionGroup is the exclusivity group shared by the camera motion components. Attaching
// one to a view detaches any other camera motion component attached to that view.
const CameraMotionGroup = "CameraMotion"
