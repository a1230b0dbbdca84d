// Package quarkgl provides a small, predictable software 3D engine.
//
// QuarkGL covers what a single-scene viewer needs: a scene graph of meshes and
// lights, a perspective camera, physically based and Phong materials, HDR
// environment textures and orbit controls. It is not a game engine and does
// not provide a GPU abstraction.
//
// Pipeline (fixed):
//
//	Scene → Transform → Projection → Clipping → Rasterization → Shading → Tone mapping → Frame output.
//
// The renderer is software-only and draws into a caller-provided Target. Shading
// happens in linear float RGB; the result is tone mapped and encoded once per
// pixel. Rendering reads the scene and camera but never mutates them.
package quarkgl
