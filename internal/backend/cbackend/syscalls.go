package cbackend

import "fmt"

// GenerateSyscalls renders syscalls.c, present only when
// syscall_mode=Linux (§6.5). Lifted ecall sequences call rv_syscall
// with the guest's a7 as the syscall number and a0..a5 as arguments;
// the number is always taken from a7, and the Embedded ABI's t0
// convention is not supported. Unknown numbers return -ENOSYS.
func GenerateSyscalls(baseName string) string {
	return fmt.Sprintf(`#include <stdint.h>
#include <unistd.h>
#include <sys/mman.h>
#include <sys/stat.h>
#include <sys/random.h>
#include <time.h>
#include <errno.h>

#include "%s.h"

int64_t rv_syscall(RvState* state, uint8_t* memory, uint64_t nr,
                    uint64_t a0, uint64_t a1, uint64_t a2, uint64_t a3,
                    uint64_t a4, uint64_t a5) {
  switch (nr) {
    case 93: case 94: /* exit / exit_group */
      state->exit_code = (uint8_t)a0;
      state->has_exited = 1;
      return 0;
    case 64: /* write */
      return write((int)a0, memory + a1, (size_t)a2);
    case 63: /* read */
      return read((int)a0, memory + a1, (size_t)a2);
    case 214: { /* brk */
      if (a0 == 0) return state->brk;
      state->brk = a0;
      return state->brk;
    }
    case 222: /* mmap: guest memory is already fully mapped, return the hint */
      return (int64_t)a0;
    case 80: /* fstat */
      return fstat((int)a0, (struct stat*)(memory + a1));
    case 278: /* getrandom */
      return getrandom(memory + a0, (size_t)a1, (unsigned int)a2);
    case 113: case 403: /* clock_gettime */
      return clock_gettime((clockid_t)a0, (struct timespec*)(memory + a1));
    default:
      return -38; /* -ENOSYS */
  }
}
`, baseName)
}
