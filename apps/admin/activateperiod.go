package main

func (cli *commandLine) activatePeriod(id int) error {
	p, err := cli.periodSvc.Activate(id)
	if err != nil {
		return err
	}
	logger.Printf("period %q (%d) is now active", p.Name, p.ID)
	return nil
}
