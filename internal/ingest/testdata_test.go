package ingest

const sampleLog = `Searching in /pdk
The latest directory is: /pdk/tsmc28/v1.2/models
Technology: tsmc28
List of all devices: nch_lvt, pch_lvt, rppoly
inline subckt nch_lvt
Folder Path: /pdk/tsmc28/v1.2/models/spectre
File Name: nch_lvt.scs
  parameters w=1u
  clexvw assert expr=vth > 0.25

inline subckt pch_lvt
Folder Path: /pdk/tsmc28/v1.2/models/spectre
File Name: pch_lvt.scs
  parameters w=1u
inline subckt nch_hvt
Folder Path: /pdk/tsmc28/v1.2/models/spectre
File Name: nch_hvt.scs
  myassert assert expr=id > 0
The latest directory is: /pdk/gf22/v0.9/models
Technology: gf22
List of all devices: nfet, , nfet
inline subckt nfet
  clexcw assert expr=1
`
