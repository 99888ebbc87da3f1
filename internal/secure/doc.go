// Package secure keeps repository credentials encrypted in memory.
//
// Values resolved from secret stores are sealed into memguard enclaves as
// soon as they are read and revealed only when the Maven child environment
// is assembled:
//
//	bag := secure.NewBag()
//	defer bag.Destroy()
//	_ = bag.Put("MVNOPS_SERVER_NEXUS_PASSWORD", value)
//	env, err := bag.Environ()
//
// Memory locking depends on RLIMIT_MEMLOCK on Linux. When mlock fails
// memguard falls back to ordinary memory and the values remain encrypted.
package secure
