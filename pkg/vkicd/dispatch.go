// Package vkicd holds the Vulkan Installable Client Driver replacement
// logic that backs cmd/rgpu-vk-icd's cgo shim: dispatch-cell layout for
// dispatchable handles, local-id handle mapping, the client-side shadow
// memory mirror, and command-buffer record-time capture. Like
// pkg/cudainterpose, none of this touches cgo directly, so it is
// exercised by ordinary Go tests; the cmd binary only marshals C
// arguments into these calls.
package vkicd

// ICDLoaderMagic is the value the Vulkan loader expects to find in the
// first pointer-sized word of any dispatchable handle an ICD returns
// (VkInstance, VkPhysicalDevice, VkDevice, VkQueue, VkCommandBuffer). The
// loader overwrites that word with its own dispatch table pointer once
// it has seen it; this package never reads it back, only writes it once
// at allocation time so the loader has something to find.
const ICDLoaderMagic uint64 = 0x01CDC0DE

// DispatchCellWords returns the two machine words a dispatchable handle
// must be allocated from: the loader magic (later overwritten by the
// loader's own dispatch table pointer) and our local id, which the
// loader is contractually required to leave untouched. The cgo shim
// allocates the actual C memory for these two words (so the pointer
// handed back to the application is stable and owned by C, not by the
// Go garbage collector) and writes them in this order.
func DispatchCellWords(localID uint64) [2]uint64 {
	return [2]uint64{ICDLoaderMagic, localID}
}

// LocalIDFromCell extracts the local id from the second word of a
// dispatch cell the cgo shim has read back out of a dispatchable handle
// pointer the application passed in.
func LocalIDFromCell(cell [2]uint64) uint64 {
	return cell[1]
}
