package guard

func defaultSource() StateSource {
	return SysfsSource{Root: DefaultSysfsRoot}
}
