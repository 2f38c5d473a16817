// Package shader links WGSL programs for the halftone renderer and reflects
// their resource layout.
//
// A program is a vertex stage and a fragment stage concatenated into one
// WGSL module. [Link] parses, lowers and validates the module with naga, then
// records every named input the renderer needs:
//
//   - vertex attributes by argument name, mapped to their @location
//   - uniform struct members by member name, mapped to a byte range inside
//     the uniform buffer at (group, binding)
//   - textures and samplers by variable name, mapped to (group, binding)
//
// Names are resolved once at link time. Lookups afterwards are map reads.
//
// # Caching
//
// [Cache] stores linked programs by name. A cache is an ordinary value owned
// by whoever manages renderer lifetimes and is passed to each renderer that
// should share it. Registering two different source pairs under one name is
// an error ([ErrNameCollision]).
//
// # Loading
//
// [Loader] fetches program sources from an [io/fs.FS] or over HTTP. The
// built-in halftone program ships embedded in [BuiltinFS].
package shader
