// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package schedule is the section scheduling engine. It takes an immutable tree of
// intervals (sections, loops and leaf operations) expressed in integer grid ticks and
// resolves the start offset and length of every node, then serializes the result into
// a flat, size-bounded list of events.
//
// # Core Concepts
//
//   - Tree: the append-only arena of input nodes. Every node is addressed by a Handle
//     assigned when it is added. Children must be added before their parent, so a tree
//     is acyclic by construction.
//
//   - Schedule: the resolved counterpart of a Tree. It holds one Timing per Handle
//     (length, grid, child offsets, absolute start). The input Tree is never mutated,
//     which keeps a resolution pass isolated and repeatable.
//
//   - CompileContext: the per-compilation state threaded through the recursive walk:
//     immutable Settings, the id source and the logger. A context must never be shared
//     between compilations.
//
// # Arrangement
//
// Left-aligned sections pack children as early as possible in declaration order, right-
// aligned sections pack them as late as possible by walking the children in reverse.
// Both honor per-signal occupancy, play_after edges between siblings and the grid of
// every child. Errors abort the whole compilation and are reported as ReferenceError,
// CapacityError or StructuralError.
package schedule
